package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/icco/melodygrid/internal/apperr"
)

// Default file names for exported melodies.
const (
	MIDIFileName = "melody.mid"
	WAVFileName  = "melody.wav"
)

// WriteFile stores an exported file as dir/name and returns its path. The
// file is written next to its destination and renamed, so a failed export
// never leaves a truncated file behind.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", apperr.Wrap(err, apperr.ExportFailure, "Could not create the export directory.")
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		_ = os.Remove(tmp)
		return "", apperr.Wrap(fmt.Errorf("error writing %s: %w", tmp, err), apperr.ExportFailure, "Could not write the export file.")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", apperr.Wrap(fmt.Errorf("error replacing %s: %w", path, err), apperr.ExportFailure, "Could not write the export file.")
	}
	return path, nil
}
