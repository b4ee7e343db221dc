package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ocrbridge/internal/domain"
	"ocrbridge/internal/port"
)

// ProcessService defines the image-to-structured-JSON pipeline contract.
type ProcessService interface {
	Process(ctx context.Context, imageURL string) (domain.AssistantReply, error)
}

type processService struct {
	fetcher   port.ImageFetcher
	extractor port.DocumentExtractor
	assistant port.AssistantClient
	poller    *StatusPoller
	log       zerolog.Logger
}

// NewProcessService creates a new ProcessService implementation.
func NewProcessService(
	fetcher port.ImageFetcher,
	extractor port.DocumentExtractor,
	assistant port.AssistantClient,
	pollCfg StatusPollerConfig,
	log zerolog.Logger,
) ProcessService {
	return &processService{
		fetcher:   fetcher,
		extractor: extractor,
		assistant: assistant,
		poller:    NewStatusPoller(assistant, pollCfg, log),
		log:       log.With().Str("component", "process").Logger(),
	}
}

// Process downloads the image, extracts its text, hands the text to the
// assistant, waits for the run and parses the reply. The downloaded image is
// deleted before Process returns, whatever the outcome.
func (s *processService) Process(ctx context.Context, imageURL string) (domain.AssistantReply, error) {
	log := s.log.With().Str("url", imageURL).Logger()

	img, err := s.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := img.Release(); err != nil {
			log.Error().Err(err).Str("path", img.Path).Msg("failed to remove temporary image")
		}
	}()

	text, err := s.extractor.Extract(ctx, img.Path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("text", text).Msg("extracted document text")

	handle, err := s.assistant.Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("thread_id", handle.ThreadID).Str("run_id", handle.RunID).Logger()
	log.Info().Msg("assistant run submitted")

	if err := s.poller.Wait(ctx, handle); err != nil {
		return nil, err
	}

	messages, err := s.assistant.ListMessages(ctx, handle.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("reading assistant reply: %w", err)
	}

	reply, err := ParseReply(messages)
	if err != nil {
		var decodeErr *domain.JSONDecodeError
		if errors.As(err, &decodeErr) {
			log.Error().Err(decodeErr.Err).Str("content", decodeErr.Cleaned).Msg("assistant reply is not valid JSON")
		}
		return nil, err
	}

	log.Info().Int("bytes", len(reply)).Msg("image processed")
	return reply, nil
}
