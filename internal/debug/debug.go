// Package debug routes logrus output away from the terminal UI.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	file *os.File
)

// Setup points the standard logrus logger at path when enabled, truncating
// the file, or discards all output otherwise. It returns a function that
// closes the log file.
func Setup(path string, enabled bool) (func(), error) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	if !enabled {
		logrus.SetOutput(io.Discard)
		logrus.SetLevel(logrus.WarnLevel)
		return Close, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return Close, fmt.Errorf("error creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the config dir
	if err != nil {
		return Close, fmt.Errorf("error opening debug log: %w", err)
	}
	file = f

	logrus.SetOutput(f)
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	logrus.WithField("component", "debug").Info("=== Debug logging started ===")
	return Close, nil
}

// Close flushes and closes the debug log, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if file == nil {
		return
	}
	logrus.SetOutput(io.Discard)
	_ = file.Sync()
	_ = file.Close()
	file = nil
}
