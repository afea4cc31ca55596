package plugin

import (
	"context"
	"fmt"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/live"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/restore"
	"github.com/soyeahso/layoutdb/internal/version"
)

// Placeholder is an inert item that only carries its identity. It stands
// in for items when no editor is around to open the real thing.
type Placeholder struct {
	ItemKind string
	ID       model.ItemID
}

// Kind implements live.Item.
func (p Placeholder) Kind() string { return p.ItemKind }

// ItemID implements live.Item.
func (p Placeholder) ItemID() model.ItemID { return p.ID }

// Placeholders returns a plugin that restores each of kinds as a Placeholder.
func Placeholders(kinds []string) Plugin {
	return &placeholders{kinds: kinds}
}

type placeholders struct {
	kinds []string
}

func (*placeholders) ID() string      { return "placeholders" }
func (*placeholders) Name() string    { return "Placeholder items" }
func (*placeholders) Version() string { return version.Version }
func (*placeholders) Close() error    { return nil }

func (p *placeholders) Init(_ context.Context, api API) error {
	for _, kind := range p.kinds {
		if err := api.Kinds.Register(kind, restorePlaceholder); err != nil {
			return fmt.Errorf("kind %q: %w", kind, err)
		}
	}
	api.Log.Debug().Strs("kinds", p.kinds).Msg("placeholder kinds registered")
	return nil
}

func restorePlaceholder(ctx context.Context, req restore.Request) (live.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Placeholder{ItemKind: req.Kind, ID: req.ItemID}, nil
}

// DropLog returns a plugin that logs every item and pane dropped during a
// restore at warn level.
func DropLog() Plugin {
	return &dropLog{}
}

type dropLog struct {
	api API
}

func (*dropLog) ID() string      { return "droplog" }
func (*dropLog) Name() string    { return "Dropped item log" }
func (*dropLog) Version() string { return version.Version }

func (d *dropLog) Init(_ context.Context, api API) error {
	d.api = api
	api.Hooks.On(hooks.EventItemDropped, d.ID(), func(_ context.Context, p hooks.Payload) error {
		api.Log.Warn().Fields(p.Data).Msg("item dropped")
		return nil
	})
	api.Hooks.On(hooks.EventPaneDropped, d.ID(), func(_ context.Context, p hooks.Payload) error {
		api.Log.Warn().Fields(p.Data).Msg("panes dropped")
		return nil
	})
	return nil
}

func (d *dropLog) Close() error {
	d.api.Hooks.Off(hooks.EventItemDropped, d.ID())
	d.api.Hooks.Off(hooks.EventPaneDropped, d.ID())
	return nil
}
