// Package termlog is the logger used by the terminal surfaces (menu
// commands and the browser). Output goes to the configured log file so it
// never tears through a full-screen UI; stderr is the fallback.
package termlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
)

// Init opens path for appending and logs there at info level, or debug when
// verbose is set. An empty or unwritable path falls back to stderr.
func Init(verbose bool, path string) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()

	var w io.Writer = os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
				file = f
				w = f
			}
		}
	}

	logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "menuboard",
	})
	logger.SetLevel(log.InfoLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// Close releases the log file, if one was opened.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFile()
}

func closeFile() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Get returns the logger, or one that discards everything before Init.
// It satisfies resty.Logger.
func Get() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}

func Debug(msg string, keyvals ...any) { Get().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any) { Get().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any) { Get().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Get().Error(msg, keyvals...) }
