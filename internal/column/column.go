// Package column implements the positional column protocol used to move
// structured values in and out of SQL statements.
//
// A type taking part in the protocol reports a fixed column count and
// binds its fields, in a fixed order, onto a Binder. Reading walks a Cursor
// over one scanned row in the same order. Changing the count or order for
// a persisted type is a format break.
package column

import (
	"errors"
	"fmt"
	"math"
)

// Bindable is a value that writes itself onto consecutive columns.
type Bindable interface {
	Bind(b *Binder) error
}

// Binder accumulates statement arguments in column order.
type Binder struct {
	args []any
}

// NewBinder returns an empty binder.
func NewBinder() *Binder {
	return &Binder{}
}

// Args returns the bound arguments in order.
func (b *Binder) Args() []any {
	return b.args
}

// Len returns the number of columns bound so far.
func (b *Binder) Len() int {
	return len(b.args)
}

// Value binds a nested Bindable.
func (b *Binder) Value(v Bindable) error {
	return v.Bind(b)
}

// Blob binds a byte slice.
func (b *Binder) Blob(v []byte) {
	b.args = append(b.args, v)
}

// Text binds a string.
func (b *Binder) Text(v string) {
	b.args = append(b.args, v)
}

// NullableText binds a string pointer; nil becomes SQL NULL.
func (b *Binder) NullableText(v *string) {
	if v == nil {
		b.args = append(b.args, nil)
		return
	}
	b.args = append(b.args, *v)
}

// Int64 binds a signed integer.
func (b *Binder) Int64(v int64) {
	b.args = append(b.args, v)
}

// Uint64 binds an unsigned integer. SQLite integers are signed 64-bit, so
// the bits are stored as-is and reinterpreted on read.
func (b *Binder) Uint64(v uint64) {
	b.args = append(b.args, int64(v))
}

// NullableInt64 binds an integer pointer; nil becomes SQL NULL.
func (b *Binder) NullableInt64(v *int64) {
	if v == nil {
		b.args = append(b.args, nil)
		return
	}
	b.args = append(b.args, *v)
}

// Bool binds a boolean as 0 or 1.
func (b *Binder) Bool(v bool) {
	b.args = append(b.args, boolToInt(v))
}

// NullableBool binds a boolean pointer; nil becomes SQL NULL.
func (b *Binder) NullableBool(v *bool) {
	if v == nil {
		b.args = append(b.args, nil)
		return
	}
	b.args = append(b.args, boolToInt(*v))
}

// Null binds SQL NULL.
func (b *Binder) Null() {
	b.args = append(b.args, nil)
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// DecodeError reports a column that could not be decoded into its field.
type DecodeError struct {
	Field string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s (column %d): %v", e.Field, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrMissingColumn is returned when a cursor runs past the end of its row.
var ErrMissingColumn = errors.New("missing column")

// Cursor reads consecutive columns from one row.
type Cursor struct {
	values []any
	pos    int
}

// NewCursor returns a cursor over already-scanned column values.
func NewCursor(values []any) *Cursor {
	return &Cursor{values: values}
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Scan reads n columns from s into a new cursor.
func Scan(s Scanner, n int) (*Cursor, error) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return NewCursor(values), nil
}

// Pos returns the index of the next column to be read.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread columns.
func (c *Cursor) Remaining() int {
	return len(c.values) - c.pos
}

func (c *Cursor) next(field string) (any, int, error) {
	idx := c.pos
	if idx >= len(c.values) {
		return nil, idx, &DecodeError{Field: field, Index: idx, Err: ErrMissingColumn}
	}
	c.pos++
	return c.values[idx], idx, nil
}

func (c *Cursor) fail(field string, idx int, err error) error {
	return &DecodeError{Field: field, Index: idx, Err: err}
}

// Blob reads a non-null byte slice.
func (c *Cursor) Blob(field string) ([]byte, error) {
	v, idx, err := c.next(field)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case nil:
		return nil, c.fail(field, idx, errors.New("unexpected NULL"))
	default:
		return nil, c.fail(field, idx, fmt.Errorf("expected blob, got %T", v))
	}
}

// Text reads a non-null string.
func (c *Cursor) Text(field string) (string, error) {
	s, err := c.NullableText(field)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", c.fail(field, c.pos-1, errors.New("unexpected NULL"))
	}
	return *s, nil
}

// NullableText reads a string that may be NULL.
func (c *Cursor) NullableText(field string) (*string, error) {
	v, idx, err := c.next(field)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &x, nil
	case []byte:
		s := string(x)
		return &s, nil
	default:
		return nil, c.fail(field, idx, fmt.Errorf("expected text, got %T", v))
	}
}

// Int64 reads a non-null integer.
func (c *Cursor) Int64(field string) (int64, error) {
	n, err := c.NullableInt64(field)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, c.fail(field, c.pos-1, errors.New("unexpected NULL"))
	}
	return *n, nil
}

// NullableInt64 reads an integer that may be NULL.
func (c *Cursor) NullableInt64(field string) (*int64, error) {
	v, idx, err := c.next(field)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return &x, nil
	case int:
		n := int64(x)
		return &n, nil
	case bool:
		n := boolToInt(x)
		return &n, nil
	default:
		return nil, c.fail(field, idx, fmt.Errorf("expected integer, got %T", v))
	}
}

// NullableInt32 reads an integer that may be NULL and must fit in 32 bits.
func (c *Cursor) NullableInt32(field string) (*int32, error) {
	n, err := c.NullableInt64(field)
	if err != nil || n == nil {
		return nil, err
	}
	if *n < math.MinInt32 || *n > math.MaxInt32 {
		return nil, c.fail(field, c.pos-1, fmt.Errorf("%d out of int32 range", *n))
	}
	v := int32(*n)
	return &v, nil
}

// Uint64 reads a non-null integer bound with Binder.Uint64.
func (c *Cursor) Uint64(field string) (uint64, error) {
	n, err := c.Int64(field)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// Bool reads a non-null boolean.
func (c *Cursor) Bool(field string) (bool, error) {
	b, err := c.NullableBool(field)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, c.fail(field, c.pos-1, errors.New("unexpected NULL"))
	}
	return *b, nil
}

// NullableBool reads a boolean that may be NULL.
func (c *Cursor) NullableBool(field string) (*bool, error) {
	v, idx, err := c.next(field)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &x, nil
	case int64:
		b := x != 0
		return &b, nil
	case int:
		b := x != 0
		return &b, nil
	default:
		return nil, c.fail(field, idx, fmt.Errorf("expected boolean, got %T", v))
	}
}
