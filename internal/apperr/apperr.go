// Package apperr defines the error kinds surfaced to the user and helpers to
// tag and inspect them.
package apperr

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Error kinds a caller can tell apart.
const (
	AudioUnavailable ftag.Kind = "audio_unavailable"
	InvalidSavedData ftag.Kind = "invalid_saved_data"
	NoSavedData      ftag.Kind = "no_saved_data"
	ExportFailure    ftag.Kind = "export_failure"
	Busy             ftag.Kind = "busy"
)

var defaultReasons = map[ftag.Kind]string{
	AudioUnavailable: "Audio output is unavailable.",
	InvalidSavedData: "Could not load melody. Saved data is in an invalid format.",
	NoSavedData:      "No saved melody found!",
	ExportFailure:    "Export failed.",
	Busy:             "Not available while playing or exporting.",
}

// New creates an error of the given kind. reason is shown to the user, msg is
// kept for logs.
func New(kind ftag.Kind, msg, reason string) error {
	return fault.New(msg, fmsg.WithDesc(msg, reason), ftag.With(kind))
}

// Wrap tags err with kind and a user-facing reason. A nil err stays nil.
func Wrap(err error, kind ftag.Kind, reason string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(err, fmsg.WithDesc(string(kind), reason), ftag.With(kind))
}

// Kind returns the kind attached to err, or "" when err carries none.
func Kind(err error) ftag.Kind {
	if err == nil {
		return ""
	}
	return ftag.Get(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind ftag.Kind) bool {
	return err != nil && Kind(err) == kind
}

// Reason returns the user-facing message for err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	if r, ok := defaultReasons[Kind(err)]; ok {
		return r
	}
	return err.Error()
}
