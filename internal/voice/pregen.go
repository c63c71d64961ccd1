// Package voice pre-generates the IVR greeting audio for a tenant.
//
// Generation is fire-and-forget: Submit returns at once and the caller may
// ignore the result channel. Failures are logged and counted, never surfaced.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"missedcall/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultTimeout = 60 * time.Second

// Synthesizer turns greeting text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, contentType string, err error)
}

// AudioStore persists audio and returns a URL the voice gateway can fetch.
type AudioStore interface {
	Put(ctx context.Context, key string, audio []byte, contentType string) (string, error)
}

// TenantAudio records the generated greeting on the tenant.
type TenantAudio interface {
	SetIVRAudioURL(ctx context.Context, tenantID, greeting, url string) (bool, error)
}

// Result is delivered once per Submit on a buffered channel.
type Result struct {
	TenantID string
	URL      string
	// Superseded is set when the greeting changed while the audio was being
	// made; the tenant is left untouched.
	Superseded bool
	Err        error
}

type Pregenerator struct {
	Synth   Synthesizer
	Store   AudioStore
	Tenants TenantAudio

	Timeout time.Duration
	Total   *prometheus.CounterVec
	Now     func() time.Time
}

// Submit starts generation for tenantID in its own goroutine. The work runs on
// a context detached from ctx so it outlives the triggering request.
func (p *Pregenerator) Submit(ctx context.Context, tenantID, text string) <-chan Result {
	out := make(chan Result, 1)
	log := logger.From(ctx).With("tenant_id", tenantID)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	bg, cancel := context.WithTimeout(logger.With(context.WithoutCancel(ctx), log), timeout)

	go func() {
		defer cancel()
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("voice: panic: %v", r)
				res := Result{TenantID: tenantID, Err: err}
				p.finish(log, res)
				out <- res
			}
		}()

		res := p.generate(bg, tenantID, text)
		p.finish(log, res)
		out <- res
	}()
	return out
}

func (p *Pregenerator) generate(ctx context.Context, tenantID, text string) Result {
	res := Result{TenantID: tenantID}
	text = strings.TrimSpace(text)
	if text == "" {
		res.Err = errors.New("voice: empty greeting")
		return res
	}
	if p.Synth == nil || p.Store == nil || p.Tenants == nil {
		res.Err = errors.New("voice: pre-generation not configured")
		return res
	}

	audio, contentType, err := p.Synth.Synthesize(ctx, text)
	if err != nil {
		res.Err = fmt.Errorf("voice: synthesize: %w", err)
		return res
	}
	url, err := p.Store.Put(ctx, objectKey(tenantID, p.now()), audio, contentType)
	if err != nil {
		res.Err = fmt.Errorf("voice: store: %w", err)
		return res
	}
	applied, err := p.Tenants.SetIVRAudioURL(ctx, tenantID, text, url)
	if err != nil {
		res.Err = fmt.Errorf("voice: record url: %w", err)
		return res
	}
	res.URL = url
	res.Superseded = !applied
	return res
}

func (p *Pregenerator) finish(log *slog.Logger, res Result) {
	result := "ok"
	switch {
	case res.Err != nil:
		result = "error"
		log.Warn("ivr audio pre-generation failed", "err", res.Err)
	case res.Superseded:
		result = "superseded"
		log.Info("ivr audio discarded, greeting changed meanwhile", "url", res.URL)
	default:
		log.Info("ivr audio pre-generated", "url", res.URL)
	}
	if p.Total != nil {
		p.Total.WithLabelValues(result).Inc()
	}
}

func (p *Pregenerator) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// objectKey versions greetings by time so a CDN never serves a stale file.
func objectKey(tenantID string, at time.Time) string {
	return fmt.Sprintf("ivr/%s/greeting-%d.mp3", tenantID, at.Unix())
}
