package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

const (
	scenesEndpoint   = "/scenes/"
	contentsEndpoint = "/contents/"
)

// DescriptorFetcher implements ports.DescriptorFetcher against a content
// server exposing GET /scenes/{sceneId}.
type DescriptorFetcher struct {
	client  ports.HTTPClient
	baseURL string
}

// NewDescriptorFetcher creates a fetcher for the content server at baseURL.
func NewDescriptorFetcher(client ports.HTTPClient, baseURL string) *DescriptorFetcher {
	return &DescriptorFetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Fetch retrieves the parcel data of sceneID.
func (f *DescriptorFetcher) Fetch(ctx context.Context, sceneID string) (domain.Descriptor, error) {
	endpoint := f.baseURL + scenesEndpoint + url.PathEscape(sceneID)
	resp, err := get(ctx, f.client, endpoint)
	if err != nil {
		return domain.Descriptor{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Descriptor{}, fmt.Errorf("%w: %s", domain.ErrSceneNotFound, sceneID)
	}
	if err := checkStatus(resp); err != nil {
		return domain.Descriptor{}, err
	}

	var desc domain.Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return domain.Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	if desc.SceneID == "" {
		desc.SceneID = sceneID
	}
	return desc, nil
}

// Preloader implements ports.Preloader by downloading every mapped content
// file of a scene from GET /contents/{hash}.
type Preloader struct {
	client  ports.HTTPClient
	baseURL string
	logger  ports.Logger
}

// NewPreloader creates a preloader for the content server at baseURL.
func NewPreloader(client ports.HTTPClient, baseURL string, logger ports.Logger) *Preloader {
	return &Preloader{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Preload fetches the mapped files of desc. The first failure aborts.
func (p *Preloader) Preload(ctx context.Context, desc domain.Descriptor) error {
	for _, m := range desc.Mappings {
		if err := p.fetch(ctx, m); err != nil {
			return fmt.Errorf("preload %s: %w", m.File, err)
		}
	}
	p.logger.Debug("scene preloaded", ports.SceneID(desc.SceneID), ports.Int("files", len(desc.Mappings)))
	return nil
}

func (p *Preloader) fetch(ctx context.Context, m domain.Mapping) error {
	resp, err := get(ctx, p.client, p.baseURL+contentsEndpoint+url.PathEscape(m.Hash))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	return nil
}

func get(ctx context.Context, client ports.HTTPClient, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
}
