// Package core provides the shared dependency and package types.
package core

// StateKind identifies how a pinned dependency was resolved.
type StateKind string

const (
	StateUnresolved StateKind = ""
	StateBranch     StateKind = "branch"
	StateVersion    StateKind = "version"
)

// ResolutionState is the resolved state of a pin: a branch name, a version
// tag, or neither.
type ResolutionState struct {
	Kind  StateKind
	Value string // branch name or version tag, empty when unresolved
}

// Branch returns a state pinned to the named branch.
func Branch(name string) ResolutionState {
	return ResolutionState{Kind: StateBranch, Value: name}
}

// Version returns a state pinned to the given version tag.
func Version(tag string) ResolutionState {
	return ResolutionState{Kind: StateVersion, Value: tag}
}

// Unresolved returns a state with neither branch nor version.
func Unresolved() ResolutionState {
	return ResolutionState{Kind: StateUnresolved}
}

// IsResolved reports whether the state names a branch or a version.
func (s ResolutionState) IsResolved() bool {
	return s.Kind == StateBranch || s.Kind == StateVersion
}

func (s ResolutionState) String() string {
	if !s.IsResolved() {
		return "unresolved"
	}
	return string(s.Kind) + ":" + s.Value
}

// ResolvedDependency is a single pin read from a lock manifest.
type ResolvedDependency struct {
	Identity string
	Kind     string // e.g. "remoteSourceControl", carried through unused
	Location string
	State    ResolutionState
	Revision string
}

// Package is the public result for one dependency.
type Package struct {
	Name       string // display name derived from Identity
	Location   string // source location exactly as pinned
	LicenseURL string // empty when no license file was found

	Identity string
	Revision string
	Version  string
	Branch   string
	PURL     string
}

// HasLicense reports whether a license file was discovered.
func (p Package) HasLicense() bool {
	return p.LicenseURL != ""
}
