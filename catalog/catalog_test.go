package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/git-pkgs/pinlicenses/fetch"
	"github.com/git-pkgs/pinlicenses/internal/core"
	"github.com/git-pkgs/pinlicenses/resolver"
)

// stubResolver returns a license for every resolved dependency whose
// identity is in found, after an optional per-identity delay.
type stubResolver struct {
	found  map[string]string
	delays map[string]time.Duration
	mu     sync.Mutex
	calls  []string
}

func (s *stubResolver) Resolve(_ context.Context, dep core.ResolvedDependency) string {
	if d := s.delays[dep.Identity]; d > 0 {
		time.Sleep(d)
	}
	s.mu.Lock()
	s.calls = append(s.calls, dep.Identity)
	s.mu.Unlock()
	return s.found[dep.Identity]
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		identity string
		want     string
	}{
		{"swiftLint", "Swiftlint"},
		{"swift-argument-parser", "Swift-argument-parser"},
		{"alamofire", "Alamofire"},
		{"SDWebImage", "Sdwebimage"},
		{"a", "A"},
		{"", ""},
		{"élan", "Élan"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.identity); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.identity, got, tt.want)
		}
	}
}

func TestPURL(t *testing.T) {
	tests := []struct {
		name string
		dep  core.ResolvedDependency
		want string
	}{
		{
			name: "version",
			dep: core.ResolvedDependency{
				Location: "https://github.com/apple/swift-log.git",
				State:    core.Version("1.5.3"),
				Revision: "abc",
			},
			want: "pkg:swift/github.com/apple/swift-log@1.5.3",
		},
		{
			name: "branch uses revision",
			dep: core.ResolvedDependency{
				Location: "https://github.com/realm/SwiftLint",
				State:    core.Branch("main"),
				Revision: "f00d",
			},
			want: "pkg:swift/github.com/realm/SwiftLint@f00d",
		},
		{
			name: "no version",
			dep: core.ResolvedDependency{
				Location: "https://github.com/acme/foo",
				State:    core.Unresolved(),
			},
			want: "pkg:swift/github.com/acme/foo",
		},
		{
			name: "scp style",
			dep: core.ResolvedDependency{
				Location: "git@github.com:acme/foo.git",
				State:    core.Version("1.0.0"),
			},
			want: "",
		},
		{
			name: "host only",
			dep: core.ResolvedDependency{
				Location: "https://example.com/",
				State:    core.Version("1.0.0"),
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PURL(tt.dep); got != tt.want {
				t.Errorf("PURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackagesPreservesOrderAndCardinality(t *testing.T) {
	deps := make([]core.ResolvedDependency, 20)
	found := make(map[string]string)
	delays := make(map[string]time.Duration)
	for i := range deps {
		id := fmt.Sprintf("dep%02d", i)
		deps[i] = core.ResolvedDependency{
			Identity: id,
			Location: "https://github.com/acme/" + id + ".git",
			State:    core.Version("1.0.0"),
		}
		if i%3 == 0 {
			found[id] = "https://example.com/" + id + "/LICENSE"
		}
		// later entries finish first
		delays[id] = time.Duration(len(deps)-i) * time.Millisecond
	}

	c := New(&stubResolver{found: found, delays: delays}, WithConcurrency(5))
	packages := c.Packages(context.Background(), deps)

	if len(packages) != len(deps) {
		t.Fatalf("len(packages) = %d, want %d", len(packages), len(deps))
	}
	for i, p := range packages {
		if p.Identity != deps[i].Identity {
			t.Errorf("packages[%d].Identity = %q, want %q", i, p.Identity, deps[i].Identity)
		}
		if p.Location != deps[i].Location {
			t.Errorf("packages[%d].Location = %q, want %q", i, p.Location, deps[i].Location)
		}
		if p.LicenseURL != found[deps[i].Identity] {
			t.Errorf("packages[%d].LicenseURL = %q, want %q", i, p.LicenseURL, found[deps[i].Identity])
		}
	}
}

func TestPackagesEmpty(t *testing.T) {
	c := New(&stubResolver{})
	packages := c.Packages(context.Background(), nil)
	if len(packages) != 0 {
		t.Errorf("len(packages) = %d, want 0", len(packages))
	}
}

func TestPackagesSequential(t *testing.T) {
	deps := []core.ResolvedDependency{
		{Identity: "a", State: core.Version("1")},
		{Identity: "b", State: core.Version("1")},
		{Identity: "c", State: core.Version("1")},
	}
	stub := &stubResolver{delays: map[string]time.Duration{"a": 10 * time.Millisecond}}

	New(stub, WithConcurrency(1)).Packages(context.Background(), deps)

	if got := strings.Join(stub.calls, ","); got != "a,b,c" {
		t.Errorf("resolve order = %s, want a,b,c", got)
	}
}

func TestPackagesFields(t *testing.T) {
	deps := []core.ResolvedDependency{
		{
			Identity: "swiftLint",
			Location: "https://github.com/realm/SwiftLint.git",
			State:    core.Branch("main"),
			Revision: "abc123",
		},
		{
			Identity: "swift-log",
			Location: "https://github.com/apple/swift-log.git",
			State:    core.Version("1.5.3"),
			Revision: "def456",
		},
	}

	packages := New(&stubResolver{}).Packages(context.Background(), deps)

	first := packages[0]
	if first.Name != "Swiftlint" || first.Branch != "main" || first.Version != "" || first.Revision != "abc123" {
		t.Errorf("unexpected first package: %+v", first)
	}
	if first.HasLicense() {
		t.Error("expected no license")
	}

	second := packages[1]
	if second.Name != "Swift-log" || second.Version != "1.5.3" || second.Branch != "" {
		t.Errorf("unexpected second package: %+v", second)
	}
	if second.PURL != "pkg:swift/github.com/apple/swift-log@1.5.3" {
		t.Errorf("PURL = %q", second.PURL)
	}
}

func TestPackagesCancelled(t *testing.T) {
	deps := []core.ResolvedDependency{
		{Identity: "a", State: core.Version("1")},
		{Identity: "b", State: core.Version("1")},
	}
	stub := &stubResolver{found: map[string]string{"a": "x", "b": "y"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	packages := New(stub).Packages(ctx, deps)
	if len(packages) != 2 {
		t.Fatalf("len(packages) = %d, want 2", len(packages))
	}
	for _, p := range packages {
		if p.HasLicense() {
			t.Errorf("package %s has license after cancellation", p.Identity)
		}
	}
	if len(stub.calls) != 0 {
		t.Errorf("resolver calls = %v, want none", stub.calls)
	}
}

func TestPackagesProgress(t *testing.T) {
	deps := make([]core.ResolvedDependency, 10)
	for i := range deps {
		deps[i] = core.ResolvedDependency{Identity: fmt.Sprint(i), State: core.Version("1")}
	}

	var seen []int
	var last int
	c := New(&stubResolver{}, WithConcurrency(4), WithProgress(func(done, total int) {
		if total != len(deps) {
			t.Errorf("total = %d, want %d", total, len(deps))
		}
		seen = append(seen, done)
		last = done
	}))
	c.Packages(context.Background(), deps)

	if len(seen) != len(deps) || last != len(deps) {
		t.Errorf("progress = %v, want 1..%d", seen, len(deps))
	}
	for i, n := range seen {
		if n != i+1 {
			t.Errorf("progress[%d] = %d, want %d", i, n, i+1)
		}
	}
}

func TestPackagesAgainstServer(t *testing.T) {
	var unresolvedHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acme/foo/1.2.0/LICENSE", "/acme/bar/develop/LICENSE.md":
			w.WriteHeader(http.StatusOK)
		default:
			if strings.HasPrefix(r.URL.Path, "/acme/baz") {
				unresolvedHits.Add(1)
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	deps := []core.ResolvedDependency{
		{Identity: "foo", Location: server.URL + "/acme/foo.git", State: core.Version("1.2.0")},
		{Identity: "bar", Location: server.URL + "/acme/bar", State: core.Branch("develop")},
		{Identity: "baz", Location: server.URL + "/acme/baz.git", State: core.Unresolved()},
		{Identity: "qux", Location: server.URL + "/acme/qux.git", State: core.Version("0.1.0")},
	}

	r := resolver.New(fetch.NewCircuitBreakerProber(fetch.NewProber(), 0))
	packages := New(r, WithConcurrency(3)).Packages(context.Background(), deps)

	want := []string{
		server.URL + "/acme/foo/1.2.0/LICENSE",
		server.URL + "/acme/bar/develop/LICENSE.md",
		"",
		"",
	}
	for i, p := range packages {
		if p.LicenseURL != want[i] {
			t.Errorf("packages[%d].LicenseURL = %q, want %q", i, p.LicenseURL, want[i])
		}
	}
	if unresolvedHits.Load() != 0 {
		t.Errorf("unresolved dependency was requested %d times", unresolvedHits.Load())
	}
}
