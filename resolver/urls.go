package resolver

import (
	"net/url"
	"strings"

	"github.com/git-pkgs/pinlicenses/internal/core"
)

// LicenseFilenames are tried in this order under a candidate base.
var LicenseFilenames = []string{
	"LICENSE",
	"LICENSE.md",
	"LICENSE.txt",
}

// NormalizeLocation turns a repository location into a raw-content base URL.
//
// Both rewrites are plain substring replacements applied to every
// occurrence: ".git" is removed anywhere in the string, not only as a
// suffix, and "github.com/" becomes "raw.githubusercontent.com/".
// Existing manifests depend on exactly this, so it must stay naive.
func NormalizeLocation(location string) string {
	base := strings.ReplaceAll(location, ".git", "")
	return strings.ReplaceAll(base, "github.com/", "raw.githubusercontent.com/")
}

// CandidateBase returns the URL under which license files are looked for.
// It reports false for an unresolved dependency.
func CandidateBase(dep core.ResolvedDependency) (string, bool) {
	switch dep.State.Kind {
	case core.StateBranch, core.StateVersion:
		return NormalizeLocation(dep.Location) + "/" + dep.State.Value, true
	default:
		return "", false
	}
}

// Candidates returns the candidate license URLs for base, in the order they are tried.
func Candidates(base string) []string {
	urls := make([]string, 0, len(LicenseFilenames))
	for _, name := range LicenseFilenames {
		urls = append(urls, base+"/"+name)
	}
	return urls
}

// validURL reports whether s parses as an absolute URL with a host.
func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
