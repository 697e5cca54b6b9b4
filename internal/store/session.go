package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/grid"
)

const invalidFormat = "Could not load melody. Saved data is in an invalid format."

// SavedSession is the persisted form of a grid and its tempo.
type SavedSession struct {
	Grid  [][]bool `json:"grid"`
	Tempo int      `json:"tempo"`
}

// wireSession distinguishes missing fields from zero values.
type wireSession struct {
	Grid  [][]bool `json:"grid"`
	Tempo *int     `json:"tempo"`
}

// Encode serializes the session as JSON.
func (s SavedSession) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding session: %w", err)
	}
	return data, nil
}

// Decode parses a saved session and checks it against the expected grid
// shape. Both fields must be present, the grid must be rows x cols and the
// tempo must lie in the control range. Errors have kind
// apperr.InvalidSavedData.
func Decode(data []byte, rows, cols int) (SavedSession, error) {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return SavedSession{}, apperr.Wrap(err, apperr.InvalidSavedData, invalidFormat)
	}
	if w.Grid == nil || w.Tempo == nil {
		return SavedSession{}, apperr.New(apperr.InvalidSavedData, "saved session is missing grid or tempo", invalidFormat)
	}
	if len(w.Grid) != rows {
		return SavedSession{}, apperr.New(apperr.InvalidSavedData,
			fmt.Sprintf("saved grid has %d rows, want %d", len(w.Grid), rows), invalidFormat)
	}
	for r, row := range w.Grid {
		if len(row) != cols {
			return SavedSession{}, apperr.New(apperr.InvalidSavedData,
				fmt.Sprintf("saved grid row %d has %d columns, want %d", r, len(row), cols), invalidFormat)
		}
	}
	if !grid.ValidTempo(*w.Tempo) {
		return SavedSession{}, apperr.New(apperr.InvalidSavedData,
			fmt.Sprintf("saved tempo %d outside [%d, %d]", *w.Tempo, grid.MinTempo, grid.MaxTempo), invalidFormat)
	}
	return SavedSession{Grid: w.Grid, Tempo: *w.Tempo}, nil
}

// Save writes the session under SaveKey, replacing any previous save.
func Save(st Store, s SavedSession) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := st.Put(SaveKey, data); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

// Load reads and validates the session stored under SaveKey. A missing save
// has kind apperr.NoSavedData.
func Load(st Store, rows, cols int) (SavedSession, error) {
	data, err := st.Get(SaveKey)
	if errors.Is(err, ErrNotFound) {
		return SavedSession{}, apperr.New(apperr.NoSavedData, "no saved session", "No saved melody found!")
	}
	if err != nil {
		return SavedSession{}, apperr.Wrap(err, apperr.InvalidSavedData, "Could not load melody.")
	}
	return Decode(data, rows, cols)
}
