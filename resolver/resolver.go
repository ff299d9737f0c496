// Package resolver discovers the license file of a pinned dependency by
// checking well-known raw-content URLs.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/git-pkgs/pinlicenses/internal/core"
)

// Prober answers whether a remote file exists. It must return only once
// the answer is known.
type Prober interface {
	Exists(ctx context.Context, url string) bool
}

// Resolver maps a dependency to the URL of its license file.
type Resolver struct {
	prober Prober
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver that checks candidates with prober.
func New(prober Prober, opts ...Option) *Resolver {
	r := &Resolver{
		prober: prober,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first candidate license URL that exists, or "" when
// the dependency is unresolved, its location is not a usable URL, or no
// candidate exists. Unresolved dependencies cause no network traffic.
func (r *Resolver) Resolve(ctx context.Context, dep core.ResolvedDependency) string {
	base, ok := CandidateBase(dep)
	if !ok {
		r.logger.Debug("skipping unresolved dependency", zap.String("identity", dep.Identity))
		return ""
	}
	if !validURL(base) {
		r.logger.Debug("invalid candidate base",
			zap.String("identity", dep.Identity),
			zap.String("base", base))
		return ""
	}

	for _, candidate := range Candidates(base) {
		if !validURL(candidate) {
			continue
		}
		if r.prober.Exists(ctx, candidate) {
			r.logger.Debug("license found",
				zap.String("identity", dep.Identity),
				zap.String("url", candidate))
			return candidate
		}
	}

	r.logger.Debug("no license found", zap.String("identity", dep.Identity), zap.String("base", base))
	return ""
}
