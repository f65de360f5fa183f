package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// TrackingSender implements ports.TrackingSender by posting batches as JSON.
type TrackingSender struct {
	client   ports.HTTPClient
	endpoint string
	authKey  string
	hostname string
}

// NewTrackingSender creates a sender posting to endpoint.
func NewTrackingSender(client ports.HTTPClient, endpoint, authKey, hostname string) *TrackingSender {
	return &TrackingSender{
		client:   client,
		endpoint: endpoint,
		authKey:  authKey,
		hostname: hostname,
	}
}

type trackingBatch struct {
	Events []domain.TrackingEvent `json:"events"`
}

// SendTracking posts events in a single request.
func (s *TrackingSender) SendTracking(ctx context.Context, events []domain.TrackingEvent) error {
	if len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(trackingBatch{Events: events})
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.authKey)
	}
	req.Header.Set("X-Agent-Hostname", s.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}
