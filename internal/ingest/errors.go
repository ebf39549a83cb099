package ingest

import (
	"errors"
	"fmt"

	"github.com/wegman-software/osmgraph-go/internal/source"
)

var (
	// ErrIO reports that the source could not be opened or read
	ErrIO = errors.New("input unreadable")
	// ErrFormat reports a malformed element stream
	ErrFormat = errors.New("malformed input")
	// ErrSettings reports an input that was never read because its format is unknown
	ErrSettings = errors.New("invalid input settings")
	// ErrFilter reports a failing filter script
	ErrFilter = errors.New("filter failed")
)

// Stage names the load step that failed
type Stage string

const (
	StageOpen  Stage = "open"
	StageParse Stage = "parse"
)

// LoadError aborts a load. errors.Is matches both the kind sentinel and the
// underlying cause.
type LoadError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s failed (%v): %v", e.Stage, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func openError(err error) error {
	kind := ErrIO
	if errors.Is(err, source.ErrUnknownFormat) {
		kind = ErrSettings
	}
	return &LoadError{Stage: StageOpen, Kind: kind, Err: err}
}

func parseError(kind, err error) error {
	return &LoadError{Stage: StageParse, Kind: kind, Err: err}
}
