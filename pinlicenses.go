// Package pinlicenses finds the license files of the dependencies pinned in
// a Swift package lock file.
//
// For every pin resolved to a branch or a version, the raw-content URLs
// "<repo>/<ref>/LICENSE", "LICENSE.md" and "LICENSE.txt" are requested with
// HEAD requests in that order and the first one answering 200 is kept.
//
// Basic usage:
//
//	packages := pinlicenses.GetPackages(context.Background(), "Package.resolved")
//	for _, p := range packages {
//		fmt.Println(p.Name, p.LicenseURL)
//	}
package pinlicenses

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/git-pkgs/pinlicenses/catalog"
	"github.com/git-pkgs/pinlicenses/fetch"
	"github.com/git-pkgs/pinlicenses/internal/core"
	"github.com/git-pkgs/pinlicenses/manifest"
	"github.com/git-pkgs/pinlicenses/resolver"
)

// Re-export types from internal/core
type (
	// ResolvedDependency is a single pin read from a lock manifest.
	ResolvedDependency = core.ResolvedDependency

	// ResolutionState is the branch, version or unresolved state of a pin.
	ResolutionState = core.ResolutionState

	// Package is the result for one dependency.
	Package = core.Package

	// ParseError reports a manifest that could not be decoded.
	ParseError = core.ParseError
)

// Re-export state constructors
var (
	Branch     = core.Branch
	Version    = core.Version
	Unresolved = core.Unresolved
)

// Re-export errors
var (
	ErrManifestNotFound = core.ErrManifestNotFound
	ErrNoManifestPath   = core.ErrNoManifestPath
)

// Options configures GetPackages.
type Options struct {
	// Concurrency is how many dependencies are checked at once, 0 for the default.
	Concurrency int

	// Prober replaces the network existence check when set.
	Prober resolver.Prober

	Logger   *zap.Logger
	Progress catalog.ProgressFunc

	// Timeout bounds each HEAD request, 0 for fetch.DefaultTimeout.
	Timeout time.Duration

	UserAgent string

	// BreakerThreshold turns on per-host circuit breaking: after this many
	// consecutive transport failures a host gets no further requests until
	// its backoff expires. 0 or less leaves it off, so every candidate URL
	// gets its own request.
	BreakerThreshold int
}

// Option configures Options.
type Option func(*Options)

// WithConcurrency sets how many dependencies are checked at once.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// WithProber replaces the network existence check.
func WithProber(p resolver.Prober) Option {
	return func(o *Options) { o.Prober = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithProgress registers a progress callback.
func WithProgress(fn catalog.ProgressFunc) Option {
	return func(o *Options) { o.Progress = fn }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithUserAgent sets the User-Agent sent with each HEAD request.
func WithUserAgent(ua string) Option {
	return func(o *Options) { o.UserAgent = ua }
}

// WithBreakerThreshold turns on per-host circuit breaking with threshold n.
// Circuit breaking is off unless n is positive.
func WithBreakerThreshold(n int) Option {
	return func(o *Options) { o.BreakerThreshold = n }
}

// ReadManifest reads the lock file at path.
func ReadManifest(path string) ([]ResolvedDependency, error) {
	return manifest.Read(path)
}

func newProber(o Options) resolver.Prober {
	popts := []fetch.Option{fetch.WithLogger(o.Logger)}
	if o.Timeout > 0 {
		popts = append(popts, fetch.WithTimeout(o.Timeout))
	}
	if o.UserAgent != "" {
		popts = append(popts, fetch.WithUserAgent(o.UserAgent))
	}
	p := fetch.NewProber(popts...)
	if o.BreakerThreshold <= 0 {
		return p
	}
	return fetch.NewCircuitBreakerProber(p, o.BreakerThreshold)
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// NewCatalog builds a catalog from options.
func NewCatalog(opts ...Option) *catalog.Catalog {
	o := buildOptions(opts)

	prober := o.Prober
	if prober == nil {
		prober = newProber(o)
	}

	catOpts := []catalog.Option{
		catalog.WithLogger(o.Logger),
		catalog.WithProgress(o.Progress),
	}
	if o.Concurrency > 0 {
		catOpts = append(catOpts, catalog.WithConcurrency(o.Concurrency))
	}

	return catalog.New(resolver.New(prober, resolver.WithLogger(o.Logger)), catOpts...)
}

// Packages resolves licenses for deps, returning one Package per input in
// the same order.
func Packages(ctx context.Context, deps []ResolvedDependency, opts ...Option) []Package {
	return NewCatalog(opts...).Packages(ctx, deps)
}

// GetPackages reads the lock file at manifestPath and resolves a license
// for every pin. A manifest that cannot be read or parsed yields an empty
// list; the failure is only logged.
func GetPackages(ctx context.Context, manifestPath string, opts ...Option) []Package {
	deps, err := manifest.Read(manifestPath)
	if err != nil {
		buildOptions(opts).Logger.Warn("reading manifest", zap.String("path", manifestPath), zap.Error(err))
		return []Package{}
	}
	return Packages(ctx, deps, opts...)
}

// DisplayName capitalizes identity as a single token.
func DisplayName(identity string) string {
	return catalog.DisplayName(identity)
}

// NormalizeLocation rewrites a repository location into a raw-content base.
func NormalizeLocation(location string) string {
	return resolver.NormalizeLocation(location)
}
