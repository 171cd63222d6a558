package authz

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	answer string
	err    error
	asked  []string
}

func (p *fakePrompter) PromptPassword(label string) (string, error) {
	p.asked = append(p.asked, label)
	return p.answer, p.err
}

func TestChallenge_RunsActionWithSecret(t *testing.T) {
	var got string
	err := Challenge(context.Background(), Static(" s3cret "), func(_ context.Context, secret string) error {
		got = secret
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, " s3cret ", got, "secret must be passed through untouched")
}

func TestChallenge_ReturnsActionError(t *testing.T) {
	boom := errors.New("upstream said no")
	err := Challenge(context.Background(), Static("x"), func(context.Context, string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestChallenge_DeclinesWithoutCallingAction(t *testing.T) {
	sources := map[string]Source{
		"empty":       Static(""),
		"whitespace":  Static("   "),
		"nil":         nil,
		"eof":         Prompt(&fakePrompter{err: io.EOF}, "Secret key"),
		"empty chain": Chain{Static(""), nil},
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			called := false
			err := Challenge(context.Background(), src, func(context.Context, string) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, ErrDeclined)
			assert.False(t, called)
		})
	}
}

func TestChallenge_SourceFailure(t *testing.T) {
	err := Challenge(context.Background(), Prompt(&fakePrompter{err: errors.New("not a terminal")}, "Secret"), func(context.Context, string) error {
		t.Fatal("action must not run")
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "not a terminal")
}

func TestPrompt_CancelledContext(t *testing.T) {
	p := &fakePrompter{answer: "never"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Challenge(ctx, Prompt(p, "Secret"), func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, p.asked, "prompter must not be asked after cancellation")
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	p := &fakePrompter{answer: "typed"}

	secret, err := Chain{Static(""), Static("configured"), Prompt(p, "Secret")}.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "configured", secret)
	assert.Empty(t, p.asked)

	secret, err = Chain{Static(""), Prompt(p, "Secret key")}.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typed", secret)
	assert.Equal(t, []string{"Secret key"}, p.asked)
}
