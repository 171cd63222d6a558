// Package view holds the surface-independent state of the menu page: the
// list state machine, the cards and the visibility animator. The web and
// terminal front-ends only render what these types say.
package view

import (
	"context"
	"fmt"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/metrics"
	"github.com/zfogg/menuboard/pkg/menu"
)

// State is the phase of the current fetch attempt.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Lister fetches the menu. *menu.Client satisfies it.
type Lister interface {
	List(ctx context.Context) ([]menu.Item, error)
}

// Options are fixed for the lifetime of a ListView.
type Options struct {
	// Owner is decided once by whoever mounts the view.
	Owner      bool
	TruncateAt int
	// Surface labels metrics: web, tui or cli.
	Surface string
}

// Snapshot is the whole view state at one instant.
type Snapshot struct {
	Items           []menu.Item
	Loading         bool
	ErrorMessage    string
	IsOwner         bool
	PreviewImageURL string
}

// ListView owns the fetched menu, the fetch state, the owner flag and the
// image preview. It is not safe for concurrent use; each surface confines it
// to one goroutine.
type ListView struct {
	lister  Lister
	opts    Options
	state   State
	cards   []*Card
	err     *apperr.Error
	preview string
	fetches int
}

// NewListView mounts a view. It starts in StateLoading; call Load (or
// BeginLoad and Apply when the fetch runs elsewhere) to settle it.
func NewListView(l Lister, opts Options) *ListView {
	if opts.TruncateAt <= 0 {
		opts.TruncateAt = DefaultTruncateAt
	}
	if opts.Surface == "" {
		opts.Surface = "unknown"
	}
	return &ListView{lister: l, opts: opts, state: StateLoading}
}

// BeginLoad enters StateLoading and clears any previous error.
func (v *ListView) BeginLoad() {
	v.state = StateLoading
	v.err = nil
	v.fetches++
}

// Apply settles the current attempt with a fetch result. Results are
// applied in arrival order, so the last response wins.
func (v *ListView) Apply(items []menu.Item, err error) {
	metrics.RecordListLoad(v.opts.Surface, err)
	if err != nil {
		v.state = StateFailed
		v.err = apperr.Fetch(err)
		v.cards = nil
		return
	}

	v.state = StateLoaded
	v.err = nil
	prev := make(map[menu.ItemID]bool, len(v.cards))
	for _, c := range v.cards {
		prev[c.ID()] = c.Expanded()
	}

	v.cards = make([]*Card, 0, len(items))
	for _, it := range items {
		c := NewCard(it, v.opts.TruncateAt)
		c.SetExpanded(prev[it.ID])
		v.cards = append(v.cards, c)
	}
}

// Load runs one fetch attempt synchronously.
func (v *ListView) Load(ctx context.Context) error {
	v.BeginLoad()
	items, err := v.lister.List(ctx)
	v.Apply(items, err)
	if err != nil {
		return v.err
	}
	return nil
}

// Retry re-enters StateLoading and issues exactly one fetch.
func (v *ListView) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// Fetch returns a function performing the list request without touching
// the view, for surfaces that run it on another goroutine and then Apply.
func (v *ListView) Fetch() func(ctx context.Context) ([]menu.Item, error) {
	return v.lister.List
}

func (v *ListView) State() State { return v.state }
func (v *ListView) Loading() bool { return v.state == StateLoading }
func (v *ListView) Failed() bool { return v.state == StateFailed }
func (v *ListView) IsOwner() bool { return v.opts.Owner }
func (v *ListView) TruncateAt() int { return v.opts.TruncateAt }

// Fetches counts fetch attempts started since mount.
func (v *ListView) Fetches() int { return v.fetches }

// Err is the classified failure while in StateFailed.
func (v *ListView) Err() *apperr.Error {
	return v.err
}

// ErrorMessage is the text shown next to the retry control.
func (v *ListView) ErrorMessage() string {
	if v.err == nil {
		return ""
	}
	return v.err.Message
}

// Cards are the rendered cards in server order; empty unless loaded.
func (v *ListView) Cards() []*Card {
	if v.state != StateLoaded {
		return nil
	}
	return v.cards
}

// Card finds a loaded card by id.
func (v *ListView) Card(id menu.ItemID) *Card {
	for _, c := range v.Cards() {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// Toggle flips the description of one card and reports whether it exists.
func (v *ListView) Toggle(id menu.ItemID) bool {
	c := v.Card(id)
	if c == nil {
		return false
	}
	c.Toggle()
	return true
}

// OpenPreview shows url enlarged. Empty urls are ignored.
func (v *ListView) OpenPreview(url string) {
	if url != "" {
		v.preview = url
	}
}

func (v *ListView) ClosePreview() {
	v.preview = ""
}

// Preview is the enlarged image url, or "".
func (v *ListView) Preview() string {
	return v.preview
}

// Snapshot copies the state out for rendering or inspection.
func (v *ListView) Snapshot() Snapshot {
	s := Snapshot{
		Loading:         v.state == StateLoading,
		ErrorMessage:    v.ErrorMessage(),
		IsOwner:         v.opts.Owner,
		PreviewImageURL: v.preview,
	}
	for _, c := range v.Cards() {
		s.Items = append(s.Items, c.Item())
	}
	return s
}
