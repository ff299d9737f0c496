// Package catalog turns pinned dependencies into Package values, resolving
// license files for many dependencies in parallel.
package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/git-pkgs/pinlicenses/internal/core"
)

const defaultConcurrency = 8

// LicenseResolver returns the license URL for one dependency, or "".
type LicenseResolver interface {
	Resolve(ctx context.Context, dep core.ResolvedDependency) string
}

// ProgressFunc is called after each dependency has been resolved.
type ProgressFunc func(done, total int)

// Catalog builds Package values for a set of dependencies.
type Catalog struct {
	resolver    LicenseResolver
	concurrency int
	logger      *zap.Logger
	progress    ProgressFunc
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithConcurrency sets how many dependencies are checked at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress registers a progress callback. It is called from worker
// goroutines, never concurrently, with done increasing by one each time.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Catalog) {
		c.progress = fn
	}
}

// New creates a Catalog backed by resolver.
func New(resolver LicenseResolver, opts ...Option) *Catalog {
	c := &Catalog{
		resolver:    resolver,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Packages returns one Package per dependency, in input order. A dependency
// whose license cannot be found still yields a Package with an empty
// LicenseURL. If ctx is cancelled, dependencies not yet dispatched are
// returned without any request.
func (c *Catalog) Packages(ctx context.Context, deps []core.ResolvedDependency) []core.Package {
	packages := make([]core.Package, len(deps))
	for i, dep := range deps {
		packages[i] = NewPackage(dep, "")
	}

	var (
		wg         sync.WaitGroup
		progressMu sync.Mutex
		done       atomic.Int64
	)
	sem := make(chan struct{}, c.concurrency)
	total := len(deps)

	cancelled := func() []core.Package {
		wg.Wait()
		c.logger.Warn("license discovery cancelled",
			zap.Int("resolved", int(done.Load())),
			zap.Int("total", total),
			zap.Error(ctx.Err()))
		return packages
	}

	for i, dep := range deps {
		if ctx.Err() != nil {
			return cancelled()
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return cancelled()
		}

		wg.Add(1)
		go func(i int, dep core.ResolvedDependency) {
			defer wg.Done()
			defer func() { <-sem }()

			packages[i].LicenseURL = c.resolver.Resolve(ctx, dep)
			if packages[i].LicenseURL == "" {
				c.logger.Debug("no license", zap.String("identity", dep.Identity), zap.String("state", dep.State.String()))
			}

			progressMu.Lock()
			n := int(done.Add(1))
			if c.progress != nil {
				c.progress(n, total)
			}
			progressMu.Unlock()
		}(i, dep)
	}

	wg.Wait()
	return packages
}

// NewPackage builds the Package for dep with the given license URL.
func NewPackage(dep core.ResolvedDependency, licenseURL string) core.Package {
	p := core.Package{
		Name:       DisplayName(dep.Identity),
		Location:   dep.Location,
		LicenseURL: licenseURL,
		Identity:   dep.Identity,
		Revision:   dep.Revision,
		PURL:       PURL(dep),
	}
	switch dep.State.Kind {
	case core.StateBranch:
		p.Branch = dep.State.Value
	case core.StateVersion:
		p.Version = dep.State.Value
	}
	return p
}
