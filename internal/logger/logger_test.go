package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ resty.Logger = Resty()

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitialize_WritesConsoleAndFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "menuboard.log")
	require.NoError(t, Initialize(Options{Level: "info", File: file, Console: &console}))

	Log.Info("menu loaded", WithRequestID("req-1"), WithItemID("7"), WithOwner(true))
	Log.Debug("hidden at info level")
	require.NoError(t, Close())

	assert.Contains(t, console.String(), "menu loaded")
	assert.NotContains(t, console.String(), "hidden at info level")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"req-1"`)
	assert.Contains(t, string(data), `"item_id":"7"`)
	assert.Contains(t, string(data), `"owner":true`)
}

func TestNopBeforeInitialize(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	Log = zap.NewNop()
	assert.NotPanics(t, func() {
		Log.Error("nothing happens")
		Resty().Debugf("still %s", "nothing")
	})
}
