// Package alert is the seam through which unexpected failures are reported to operators.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rise-and-shine/blocks/logger"
)

// Provider defines the interface for sending error alerts.
type Provider interface {
	// SendError sends an error alert. operation names what was running (e.g. "command: CreateTask")
	// and details carries extra string context such as request metadata.
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// Nop returns a provider that drops every alert.
func Nop() Provider {
	return nopProvider{}
}

type nopProvider struct{}

func (nopProvider) SendError(context.Context, string, string, string, map[string]string) error {
	return nil
}

// NewLogProvider returns a provider that writes alerts to l at error level.
func NewLogProvider(l logger.Logger) Provider {
	return &logProvider{logger: l.Named("alert")}
}

type logProvider struct {
	logger logger.Logger
}

func (p *logProvider) SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	p.logger.WithContext(ctx).
		With("error_code", errCode, "operation", operation, "details", details).
		Error(msg)
	return nil
}

// WithCooldown suppresses repeated alerts for the same operation and code within window.
func WithCooldown(next Provider, window time.Duration) Provider {
	return &cooldownProvider{next: next, window: window, last: map[string]time.Time{}, now: time.Now}
}

type cooldownProvider struct {
	next   Provider
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func (p *cooldownProvider) SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	key := operation + ":" + errCode

	p.mu.Lock()
	now := p.now()
	if at, ok := p.last[key]; ok && now.Sub(at) < p.window {
		p.mu.Unlock()
		return nil
	}
	p.last[key] = now
	p.mu.Unlock()

	return p.next.SendError(ctx, errCode, msg, operation, details)
}
