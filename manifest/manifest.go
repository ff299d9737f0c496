// Package manifest reads Swift package lock files (Package.resolved).
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/git-pkgs/pinlicenses/internal/core"
)

// DefaultFilename is the conventional name of the lock file.
const DefaultFilename = "Package.resolved"

type pinState struct {
	Branch   *string `json:"branch"`
	Version  *string `json:"version"`
	Revision string  `json:"revision"`
}

type pin struct {
	Identity string   `json:"identity"`
	Kind     string   `json:"kind"`
	Location string   `json:"location"`
	State    pinState `json:"state"`
}

type document struct {
	Pins []pin `json:"pins"`
}

// Parse decodes a lock file from r. A branch takes precedence over a
// version when both are set; null or missing fields are absent.
func Parse(r io.Reader) ([]core.ResolvedDependency, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &core.ParseError{Err: err}
	}

	deps := make([]core.ResolvedDependency, 0, len(doc.Pins))
	for _, p := range doc.Pins {
		deps = append(deps, core.ResolvedDependency{
			Identity: p.Identity,
			Kind:     p.Kind,
			Location: p.Location,
			State:    stateOf(p.State),
			Revision: p.State.Revision,
		})
	}
	return deps, nil
}

func stateOf(s pinState) core.ResolutionState {
	switch {
	case s.Branch != nil:
		return core.Branch(*s.Branch)
	case s.Version != nil:
		return core.Version(*s.Version)
	default:
		return core.Unresolved()
	}
}

// Read opens and parses the lock file at path.
func Read(path string) ([]core.ResolvedDependency, error) {
	if path == "" {
		return nil, core.ErrNoManifestPath
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	deps, err := Parse(f)
	if err != nil {
		var perr *core.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return deps, nil
}
