package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrbridge/internal/config"
	"ocrbridge/internal/domain"
)

const (
	defaultModel      = "prebuilt-document"
	defaultAPIVersion = "2023-07-31"
	apiKeyHeader      = "Ocp-Apim-Subscription-Key"
)

// Extractor implements port.DocumentExtractor using the Azure Form Recognizer
// (Document Intelligence) REST API.
type Extractor struct {
	endpoint     string
	apiKey       string
	model        string
	apiVersion   string
	pollInterval time.Duration
	timeout      time.Duration
	client       *http.Client
	log          zerolog.Logger
}

// NewExtractor creates an Azure-backed document extractor.
func NewExtractor(cfg *config.ExtractorConfig, log zerolog.Logger) *Extractor {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		model:        model,
		apiVersion:   apiVersion,
		pollInterval: pollInterval,
		timeout:      timeout,
		client:       &http.Client{Timeout: 30 * time.Second},
		log:          log.With().Str("component", "extractor").Logger(),
	}
}

// Extract analyzes the image at imagePath and returns the text of every line
// on every page, in backend order, joined with "\n".
func (e *Extractor) Extract(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: reading image: %v", domain.ErrExtractionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opURL, err := e.submit(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	result, err := e.waitForResult(ctx, opURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	text := flattenLines(result)
	e.log.Debug().Int("pages", len(result.Pages)).Int("chars", len(text)).Msg("document analyzed")
	return text, nil
}

func (e *Extractor) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		e.endpoint, e.model, e.apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(apiKeyHeader, e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling analyze API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("analyze API error (status %d): %s", resp.StatusCode, string(body))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", errors.New("analyze API response has no Operation-Location header")
	}
	return opURL, nil
}

// analyzeOperation models the analyze-result polling response.
type analyzeOperation struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
}

type analyzeResult struct {
	ModelID string `json:"modelId"`
	Pages   []struct {
		PageNumber int `json:"pageNumber"`
		Lines      []struct {
			Content string `json:"content"`
		} `json:"lines"`
	} `json:"pages"`
}

func (e *Extractor) waitForResult(ctx context.Context, opURL string) (*analyzeResult, error) {
	for {
		op, err := e.getOperation(ctx, opURL)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, errors.New("analysis succeeded without a result")
			}
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			if op.Error != nil {
				return nil, fmt.Errorf("analysis %s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("analysis %s", op.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for analysis (last status %q): %w", op.Status, ctx.Err())
		case <-time.After(e.pollInterval):
		}
	}
}

func (e *Extractor) getOperation(ctx context.Context, opURL string) (*analyzeOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(apiKeyHeader, e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling analyze result: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyze result API error (status %d): %s", resp.StatusCode, string(body))
	}

	var op analyzeOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("unmarshaling analyze result: %w", err)
	}
	return &op, nil
}

func flattenLines(result *analyzeResult) string {
	var lines []string
	for _, page := range result.Pages {
		for _, line := range page.Lines {
			lines = append(lines, line.Content)
		}
	}
	return strings.Join(lines, "\n")
}
