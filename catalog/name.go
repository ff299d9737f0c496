package catalog

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/git-pkgs/pinlicenses/internal/core"
)

// DisplayName capitalizes identity as a single token: the first letter is
// upper-cased and the rest lower-cased, so "swiftLint" becomes "Swiftlint".
func DisplayName(identity string) string {
	r, size := utf8.DecodeRuneInString(identity)
	if r == utf8.RuneError {
		return identity
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(identity[size:])
}

// PURL returns the swift package URL for dep, e.g.
// "pkg:swift/github.com/apple/swift-log@1.5.3". Branch and unresolved pins
// use the revision as the version. It returns "" for locations that are
// not host/path URLs.
func PURL(dep core.ResolvedDependency) string {
	u, err := url.Parse(dep.Location)
	if err != nil || u.Host == "" {
		return ""
	}

	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if p == "" {
		return ""
	}

	namespace := u.Host
	if dir := path.Dir(p); dir != "." {
		namespace += "/" + dir
	}

	version := dep.Revision
	if dep.State.Kind == core.StateVersion {
		version = dep.State.Value
	}

	return packageurl.NewPackageURL("swift", namespace, path.Base(p), version, nil, "").ToString()
}
