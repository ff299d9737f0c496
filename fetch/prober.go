// Package fetch provides HTTP existence checks for remote files, with DNS
// caching, bounded per-request timeouts and per-host circuit breaking.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single HEAD request.
const DefaultTimeout = 5 * time.Second

// ErrHostUnavailable is returned when a host's circuit breaker is open.
var ErrHostUnavailable = errors.New("host unavailable")

// ProberInterface defines the interface for existence checkers.
type ProberInterface interface {
	Head(ctx context.Context, url string) (status int, err error)
	Exists(ctx context.Context, url string) bool
}

var (
	_ ProberInterface = (*Prober)(nil)
	_ ProberInterface = (*CircuitBreakerProber)(nil)
)

// Prober issues HEAD requests to decide whether a remote file exists.
type Prober struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		p.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

var (
	sharedResolver     *dnscache.Resolver
	sharedResolverOnce sync.Once
)

// dnsResolver returns a process-wide DNS cache refreshed every 5 minutes.
func dnsResolver() *dnscache.Resolver {
	sharedResolverOnce.Do(func() {
		sharedResolver = &dnscache.Resolver{}
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				sharedResolver.Refresh(true)
			}
		}()
	})
	return sharedResolver
}

// NewTransport returns an HTTP transport that dials through the DNS cache.
func NewTransport() *http.Transport {
	resolver := dnsResolver()
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewProber creates a new Prober with the given options.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		client:    &http.Client{Transport: NewTransport()},
		userAgent: "pinlicenses/1.0",
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Head sends a HEAD request and returns the response status code.
// An error is returned only when no response was received.
func (p *Prober) Head(ctx context.Context, url string) (int, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("head request failed", zap.String("url", url), zap.Error(err))
		return 0, fmt.Errorf("head request: %w", err)
	}
	_ = resp.Body.Close()

	p.logger.Debug("head request", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return resp.StatusCode, nil
}

// Exists reports whether url answers a HEAD request with status 200.
// Every other outcome, including transport errors and timeouts, is false.
func (p *Prober) Exists(ctx context.Context, url string) bool {
	status, err := p.Head(ctx, url)
	return err == nil && status == http.StatusOK
}
