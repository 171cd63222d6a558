// Package authz implements the secret challenge that guards every owner
// mutation: obtain a secret, refuse to continue without one, then run the
// action with it. What the upstream does with the secret is its own business.
package authz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zfogg/menuboard/internal/metrics"
)

// ErrDeclined means no secret was supplied, so the action never ran.
var ErrDeclined = errors.New("authorization declined: secret key is required")

// Source yields a secret. Returning "" (or io.EOF) declines the challenge.
type Source interface {
	Secret(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Secret(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static is a secret known up front, e.g. from a form field, a flag or
// configuration.
type Static string

func (s Static) Secret(context.Context) (string, error) {
	return string(s), nil
}

// Prompter reads a secret from a person without echoing it.
type Prompter interface {
	PromptPassword(label string) (string, error)
}

// Prompt asks p for the secret using label.
func Prompt(p Prompter, label string) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return p.PromptPassword(label)
	})
}

// Chain tries each source in order and uses the first non-empty secret.
type Chain []Source

func (c Chain) Secret(ctx context.Context) (string, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		secret, err := s.Secret(ctx)
		if err != nil {
			return "", err
		}
		if !blank(secret) {
			return secret, nil
		}
	}
	return "", nil
}

// Action is the guarded mutation.
type Action func(ctx context.Context, secret string) error

// Challenge obtains a secret from src and runs action with it. It returns
// ErrDeclined without calling action when the secret is empty or the source
// was cancelled; otherwise it returns whatever action returns.
func Challenge(ctx context.Context, src Source, action Action) error {
	if src == nil {
		metrics.RecordChallenge("declined")
		return ErrDeclined
	}

	secret, err := src.Secret(ctx)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		metrics.RecordChallenge("declined")
		return fmt.Errorf("%w (%v)", ErrDeclined, err)
	case err != nil:
		metrics.RecordChallenge("failed")
		return fmt.Errorf("read secret: %w", err)
	case blank(secret):
		metrics.RecordChallenge("declined")
		return ErrDeclined
	}

	metrics.RecordChallenge("granted")
	return action(ctx, secret)
}

// blank treats whitespace-only input as no input; the secret itself is sent
// exactly as typed.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
