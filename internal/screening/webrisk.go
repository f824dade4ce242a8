// Package screening provides the malicious URL verdict collaborator consulted
// before a link is created. Screening is advisory: when the upstream service
// cannot answer, creation proceeds (fail open) rather than turning an
// analytics dependency into an outage.
package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Screener reports whether a destination URL is known to be malicious.
type Screener interface {
	Malicious(ctx context.Context, destinationURL string) (bool, error)
}

const webRiskEndpoint = "https://webrisk.googleapis.com/v1/uris:search"

var threatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}

// WebRiskScreener queries the Google Web Risk API. An empty API key disables
// screening entirely.
type WebRiskScreener struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewWebRiskScreener(apiKey string, timeout time.Duration, logger *slog.Logger) *WebRiskScreener {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &WebRiskScreener{
		apiKey:   apiKey,
		endpoint: webRiskEndpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type webRiskRequest struct {
	URI         string   `json:"uri"`
	ThreatTypes []string `json:"threatTypes"`
}

type webRiskResponse struct {
	Threat *struct {
		ThreatTypes []string `json:"threatTypes"`
	} `json:"threat"`
}

func (s *WebRiskScreener) Malicious(ctx context.Context, destinationURL string) (bool, error) {
	const op = "screening.WebRiskScreener.Malicious"

	if s.apiKey == "" {
		s.logger.Warn("screening api key is not set, skipping malware check")
		return false, nil
	}

	body, err := json.Marshal(webRiskRequest{
		URI:         destinationURL,
		ThreatTypes: threatTypes,
	})
	if err != nil {
		return false, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	url := fmt.Sprintf("%s?key=%s", s.endpoint, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("web risk request failed", slog.Any("err", err))
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("web risk returned unexpected status", slog.Int("status", resp.StatusCode))
		return false, nil
	}

	var verdict webRiskResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return verdict.Threat != nil, nil
}
