// Package apperr classifies failures into what a person looking at the menu
// needs to know: did loading fail, did a change fail, was the input wrong, or
// was no secret given.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/pkg/menu"
)

// Kind categorizes user-facing errors
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindMutation   Kind = "mutation"
	KindValidation Kind = "validation"
	KindDeclined   Kind = "declined"
	KindNotFound   Kind = "not_found"
	KindUnknown    Kind = "unknown"
)

// Generic messages shown when the upstream gives no message of its own.
const (
	MsgFetchFailed  = "Failed to fetch menu items. Please try again."
	MsgItemFailed   = "Failed to fetch menu item."
	MsgUpdateFailed = "Failed to update menu item."
	MsgCreateFailed = "Failed to add menu item."
	MsgDeleteFailed = "Failed to delete menu item."
	MsgSecretNeeded = "Secret key is required."

	MsgUpdated = "Menu item updated successfully!"
	MsgCreated = "Menu item added successfully!"
	MsgDeleted = "Menu item deleted successfully!"
)

// Error is a classified failure carrying the text to show.
type Error struct {
	Kind       Kind
	Message    string
	Field      string
	Suggestion string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a helpful suggestion to the error
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) HasSuggestion() bool {
	return e.Suggestion != ""
}

// Validation reports bad local input; nothing was sent anywhere.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Declined reports a challenge that ended without a secret.
func Declined() *Error {
	return &Error{Kind: KindDeclined, Message: MsgSecretNeeded, Cause: authz.ErrDeclined}
}

// Fetch classifies a failed list or item load. The retry affordance is the
// caller's job.
func Fetch(err error) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: KindFetch, Message: MsgFetchFailed, StatusCode: menu.StatusCode(err), Cause: err}
	if menu.IsNotFound(err) {
		e.Kind = KindNotFound
		e.Message = MsgItemFailed
	}
	if isUnreachable(err) {
		e.Suggestion = "Make sure the menu API is running and reachable."
	}
	return e
}

// Mutation classifies a failed create, update or delete. The upstream's own
// message wins over the generic fallback.
func Mutation(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, authz.ErrDeclined) {
		return Declined()
	}

	e := &Error{Kind: KindMutation, Message: fallback(op), StatusCode: menu.StatusCode(err), Cause: err}
	if msg := menu.ServerMessage(err); msg != "" {
		e.Message = msg
	}
	switch {
	case menu.IsNotFound(err):
		e.Suggestion = "The item may have been removed already. Refresh the menu."
	case e.StatusCode == 401 || e.StatusCode == 403:
		e.Suggestion = "Check the secret key and try again."
	case isUnreachable(err):
		e.Suggestion = "Make sure the menu API is running and reachable."
	}
	return e
}

// Categorize turns any error into an *Error for display.
func Categorize(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, authz.ErrDeclined) {
		return Declined()
	}

	var me *menu.Error
	if errors.As(err, &me) {
		switch me.Op {
		case menu.OpList, menu.OpGet:
			return Fetch(err)
		default:
			return Mutation(me.Op, err)
		}
	}
	return &Error{Kind: KindUnknown, Message: err.Error(), Cause: err}
}

// Message returns the text to show for err.
func Message(err error) string {
	if e := Categorize(err); e != nil {
		return e.Message
	}
	return ""
}

// Format returns a user-friendly error message for terminals.
func Format(err error) string {
	e := Categorize(err)
	if e == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error")
	if e.Kind != KindUnknown {
		fmt.Fprintf(&sb, " (%s)", e.Kind)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if e.HasSuggestion() {
		sb.WriteString("Suggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("\n")
	}
	return sb.String()
}

func fallback(op string) string {
	switch op {
	case menu.OpCreate:
		return MsgCreateFailed
	case menu.OpDelete:
		return MsgDeleteFailed
	default:
		return MsgUpdateFailed
	}
}

func isUnreachable(err error) bool {
	var me *menu.Error
	if !errors.As(err, &me) || !me.Transport() {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "no such host")
}
