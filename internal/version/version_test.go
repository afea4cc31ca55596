package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoDefault(t *testing.T) {
	info := Info(3)
	assert.Contains(t, info, "layoutdb dev")
	assert.Contains(t, info, "schema: v3")
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestCurrent_TruncatesCommit(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})

	Version = "1.2.3"
	Commit = "abc1234567890"
	Date = "2026-01-15"

	b := Current(2)
	assert.Equal(t, Build{
		Version: "1.2.3",
		Commit:  "abc1234",
		Date:    "2026-01-15",
		Schema:  2,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}, b)
	assert.NotContains(t, Info(2), "abc1234567890")
}

func TestShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abcdefghij", "abcdefg"},
		{"1234567", "1234567"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, short(tt.input))
		})
	}
}
