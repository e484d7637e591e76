package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// ContentScorer rates a text on [0, 1].
type ContentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ContentScorerFunc adapts a function to ContentScorer.
type ContentScorerFunc func(ctx context.Context, text string) (float64, error)

// Score calls f.
func (f ContentScorerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// HTTPContentScorer posts the text to an external model service. The
// service answers POST <url>/score {"text": ...} with {"score": float}.
type HTTPContentScorer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPContentScorer creates a client for the service at baseURL.
func NewHTTPContentScorer(baseURL string, timeout time.Duration) *HTTPContentScorer {
	return &HTTPContentScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
					return operationName + " " + request.URL.Path
				}),
			),
		},
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
}

// Score returns the service score clipped to [0, 1]. Non-finite scores
// become 0.
func (h *HTTPContentScorer) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("content scorer returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("error decoding response: %w", err)
	}
	if out.Score == nil {
		return 0, fmt.Errorf("content scorer response has no score")
	}
	if !common.IsFinite(*out.Score) {
		return 0, nil
	}
	return common.Clamp(*out.Score, 0, 1), nil
}
