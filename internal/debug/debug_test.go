package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	closeLog, err := Setup(path, true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logrus.WithField("component", "test").Debug("hello from the test")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Error reading log: %v", err)
	}
	for _, want := range []string{"Debug logging started", "hello from the test", "component=test"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected log to contain %q, got:\n%s", want, data)
		}
	}

	// Nothing is written after Close.
	logrus.Warn("after close")
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "after close") {
		t.Error("Expected no output after Close")
	}
}

func TestSetupDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	closeLog, err := Setup(path, false)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer closeLog()

	logrus.Error("discarded")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no log file when disabled, got %v", err)
	}
}
