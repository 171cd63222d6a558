// Package owner implements the owner-only flows: edit a price, add an item
// and delete an item. Every flow validates locally first, then runs the
// mutation through the secret challenge.
package owner

import (
	"context"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/internal/metrics"
	"github.com/zfogg/menuboard/pkg/menu"
)

// Client is the part of the menu client the flows use.
type Client interface {
	Get(ctx context.Context, id menu.ItemID) (menu.Item, error)
	Create(ctx context.Context, item menu.NewItem, secret string) error
	Update(ctx context.Context, id menu.ItemID, u menu.Update, secret string) error
	Delete(ctx context.Context, id menu.ItemID, secret string) error
}

// ChangeFunc is told about every confirmed mutation, so lists can refresh.
type ChangeFunc func(ctx context.Context, op string, id menu.ItemID)

// Flow runs owner mutations against the menu resource.
type Flow struct {
	client   Client
	onChange ChangeFunc
}

// NewFlow creates a Flow. onChange may be nil.
func NewFlow(c Client, onChange ChangeFunc) *Flow {
	if onChange == nil {
		onChange = func(context.Context, string, menu.ItemID) {}
	}
	return &Flow{client: c, onChange: onChange}
}

// LoadEdit fetches the item and returns a pre-filled edit form.
func (f *Flow) LoadEdit(ctx context.Context, id menu.ItemID) (EditForm, error) {
	item, err := f.client.Get(ctx, id)
	if err != nil {
		return EditForm{ItemID: id}, apperr.Fetch(err)
	}
	return NewEditForm(item), nil
}

// SubmitEdit validates the form and, with a secret from src, updates the
// price. A validation failure never reaches the network.
func (f *Flow) SubmitEdit(ctx context.Context, form EditForm, src authz.Source) error {
	update, err := form.Validate()
	if err != nil {
		return err
	}

	return f.mutate(ctx, menu.OpUpdate, form.ItemID, src, func(ctx context.Context, secret string) error {
		return f.client.Update(ctx, form.ItemID, update, secret)
	})
}

// Add validates the form and, with a secret from src, creates the item.
func (f *Flow) Add(ctx context.Context, form AddForm, src authz.Source) error {
	item, err := form.Validate()
	if err != nil {
		return err
	}

	return f.mutate(ctx, menu.OpCreate, "", src, func(ctx context.Context, secret string) error {
		return f.client.Create(ctx, item, secret)
	})
}

// Delete removes the item with a secret from src.
func (f *Flow) Delete(ctx context.Context, id menu.ItemID, src authz.Source) error {
	return f.mutate(ctx, menu.OpDelete, id, src, func(ctx context.Context, secret string) error {
		return f.client.Delete(ctx, id, secret)
	})
}

func (f *Flow) mutate(ctx context.Context, op string, id menu.ItemID, src authz.Source, action authz.Action) error {
	err := authz.Challenge(ctx, src, action)
	metrics.RecordMutation(op, err)
	if err != nil {
		return apperr.Mutation(op, err)
	}
	f.onChange(ctx, op, id)
	return nil
}

// SuccessMessage is the confirmation shown after op succeeds.
func SuccessMessage(op string) string {
	switch op {
	case menu.OpCreate:
		return apperr.MsgCreated
	case menu.OpDelete:
		return apperr.MsgDeleted
	default:
		return apperr.MsgUpdated
	}
}
