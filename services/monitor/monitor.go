// Package monitor times a handful of HTTP endpoints concurrently.
package monitor

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"careerhub-backend/config"
	"careerhub-backend/errors"
	"careerhub-backend/services/stats"
)

// DefaultTargets are probed when none are configured.
var DefaultTargets = []string{"/health", "/ready"}

const maxParallel = 8

type Probe struct {
	Target    string  `json:"target"`
	URL       string  `json:"url"`
	Status    int     `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	OK        bool    `json:"ok"`
	Error     string  `json:"error,omitempty"`
}

type Summary struct {
	CheckedAt        time.Time `json:"checked_at"`
	Probes           []Probe   `json:"probes"`
	Up               int       `json:"up"`
	Down             int       `json:"down"`
	AverageLatencyMS float64   `json:"average_latency_ms"`
	Availability     float64   `json:"availability"`
}

type Monitor struct {
	client  *http.Client
	base    *url.URL
	targets []string
	timeout time.Duration
}

// New resolves relative targets against baseURL.
func New(cfg config.MonitorConfig, baseURL string) (*Monitor, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, errors.Invalidf("base url %q is not absolute", baseURL)
	}
	targets := cfg.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{client: &http.Client{}, base: base, targets: targets, timeout: timeout}, nil
}

// WithClient swaps the HTTP client. Used with httptest servers.
func (m *Monitor) WithClient(c *http.Client) *Monitor {
	m.client = c
	return m
}

func (m *Monitor) resolve(target string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", errors.Invalidf("target %q", target)
	}
	return m.base.ResolveReference(ref).String(), nil
}

func (m *Monitor) probe(ctx context.Context, target string) Probe {
	p := Probe{Target: target}
	u, err := m.resolve(target)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.URL = u

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		p.Error = err.Error()
		return p
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	p.LatencyMS = math.Round(float64(time.Since(start).Microseconds())/10) / 100
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.Error = "timed out after " + m.timeout.String()
		} else {
			p.Error = err.Error()
		}
		return p
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()

	p.Status = resp.StatusCode
	p.OK = resp.StatusCode < 400
	return p
}

// Check probes every target once, in parallel, and summarizes the results
// in target order.
func (m *Monitor) Check(ctx context.Context) Summary {
	probes := make([]Probe, len(m.targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, target := range m.targets {
		g.Go(func() error {
			probes[i] = m.probe(gctx, target)
			return nil
		})
	}
	_ = g.Wait()

	s := Summary{CheckedAt: time.Now().UTC(), Probes: probes}
	var total float64
	for _, p := range probes {
		if p.OK {
			s.Up++
			total += p.LatencyMS
		} else {
			s.Down++
		}
	}
	if s.Up > 0 {
		s.AverageLatencyMS = math.Round(total/float64(s.Up)*100) / 100
	}
	s.Availability = stats.Percent(s.Up, len(probes))
	return s
}
