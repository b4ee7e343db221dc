package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ocrbridge/internal/domain"
	"ocrbridge/internal/port"
)

// StatusPollerConfig holds settings for waiting on an assistant run.
type StatusPollerConfig struct {
	Interval time.Duration
	// MaxWait bounds the whole wait. Zero means no bound.
	MaxWait time.Duration
}

// StatusPoller waits for a single assistant run to reach a terminal state.
type StatusPoller struct {
	assistant port.AssistantClient
	cfg       StatusPollerConfig
	log       zerolog.Logger
}

// NewStatusPoller creates a new StatusPoller.
func NewStatusPoller(assistant port.AssistantClient, cfg StatusPollerConfig, log zerolog.Logger) *StatusPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &StatusPoller{
		assistant: assistant,
		cfg:       cfg,
		log:       log.With().Str("component", "status_poller").Logger(),
	}
}

// Wait queries the run status every Interval until it is terminal. It returns
// nil on completed, domain.ErrAssistantProcessing on failed (or any other
// terminal status) and domain.ErrPollTimeout once MaxWait has elapsed.
func (p *StatusPoller) Wait(ctx context.Context, handle domain.RunHandle) error {
	var timeout <-chan time.Time
	if p.cfg.MaxWait > 0 {
		timer := time.NewTimer(p.cfg.MaxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	start := time.Now()
	var last domain.RunStatus
	for attempt := 1; ; attempt++ {
		status, err := p.assistant.RunStatus(ctx, handle)
		if err != nil {
			return fmt.Errorf("checking run status: %w", err)
		}

		if status != last {
			p.log.Info().
				Str("thread_id", handle.ThreadID).
				Str("run_id", handle.RunID).
				Str("from", string(last)).
				Str("status", string(status)).
				Int("attempt", attempt).
				Msg("run status changed")
			last = status
		}

		switch status {
		case domain.RunStatusCompleted:
			return nil
		case domain.RunStatusFailed:
			p.log.Error().Str("run_id", handle.RunID).Msg("assistant run failed")
			return domain.ErrAssistantProcessing
		}
		if status.IsTerminal() {
			p.log.Error().Str("run_id", handle.RunID).Str("status", string(status)).Msg("assistant run ended without completing")
			return fmt.Errorf("%w: run ended with status %q", domain.ErrAssistantProcessing, status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for run %s: %w", handle.RunID, ctx.Err())
		case <-timeout:
			p.log.Error().Str("run_id", handle.RunID).Str("status", string(status)).
				Dur("waited", time.Since(start)).Msg("gave up waiting for assistant run")
			return fmt.Errorf("%w after %s (last status %q)", domain.ErrPollTimeout, p.cfg.MaxWait, status)
		case <-time.After(p.cfg.Interval):
		}
	}
}
