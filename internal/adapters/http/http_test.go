package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bft-labs/scenevisor/internal/adapters/log"
	"github.com/bft-labs/scenevisor/internal/domain"
)

func newContentServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var hits []string

	mux := http.NewServeMux()
	mux.HandleFunc("/scenes/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/scenes/")
		if id != "A" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Descriptor{
			Name:     "Plaza",
			Main:     "bin/game.js",
			Parcels:  []domain.Vector2{{X: 0, Y: 0}, {X: 0, Y: 1}},
			Mappings: []domain.Mapping{{File: "bin/game.js", Hash: "h1"}, {File: "scene.json", Hash: "h2"}},
		})
	})
	mux.HandleFunc("/contents/", func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/contents/")
		mu.Lock()
		hits = append(hits, hash)
		mu.Unlock()
		if hash == "broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("content"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDescriptorFetcher_Fetch(t *testing.T) {
	srv, _ := newContentServer(t)
	f := NewDescriptorFetcher(srv.Client(), srv.URL+"/")

	desc, err := f.Fetch(context.Background(), "A")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if desc.SceneID != "A" {
		t.Errorf("SceneID = %q, want A", desc.SceneID)
	}
	if desc.Name != "Plaza" || len(desc.Parcels) != 2 || len(desc.Mappings) != 2 {
		t.Errorf("descriptor = %+v", desc)
	}
}

func TestDescriptorFetcher_NotFound(t *testing.T) {
	srv, _ := newContentServer(t)
	f := NewDescriptorFetcher(srv.Client(), srv.URL)

	_, err := f.Fetch(context.Background(), "nope")
	if !errors.Is(err, domain.ErrSceneNotFound) {
		t.Errorf("Fetch() error = %v, want ErrSceneNotFound", err)
	}
}

func TestPreloader_Preload(t *testing.T) {
	srv, hits := newContentServer(t)
	p := NewPreloader(srv.Client(), srv.URL, log.NewNoopLogger())

	desc := domain.Descriptor{
		SceneID:  "A",
		Mappings: []domain.Mapping{{File: "a", Hash: "h1"}, {File: "b", Hash: "h2"}},
	}
	if err := p.Preload(context.Background(), desc); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if len(*hits) != 2 {
		t.Errorf("content requests = %v, want 2", *hits)
	}
}

func TestPreloader_Failure(t *testing.T) {
	srv, hits := newContentServer(t)
	p := NewPreloader(srv.Client(), srv.URL, log.NewNoopLogger())

	desc := domain.Descriptor{
		SceneID:  "A",
		Mappings: []domain.Mapping{{File: "a", Hash: "broken"}, {File: "b", Hash: "h2"}},
	}
	err := p.Preload(context.Background(), desc)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("Preload() error = %v, want 502", err)
	}
	if len(*hits) != 1 {
		t.Errorf("content requests = %v, want to stop after the first failure", *hits)
	}
}

func TestTrackingSender_SendTracking(t *testing.T) {
	var got trackingBatch
	var auth, ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewTrackingSender(srv.Client(), srv.URL, "secret", "host-1")
	events := []domain.TrackingEvent{{Name: "scene_load", Data: json.RawMessage(`{"ms":10}`)}}
	if err := s.SendTracking(context.Background(), events); err != nil {
		t.Fatalf("SendTracking() error = %v", err)
	}

	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if ctype != "application/json" {
		t.Errorf("Content-Type = %q", ctype)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "scene_load" {
		t.Errorf("events = %+v", got.Events)
	}
}

func TestTrackingSender_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewTrackingSender(srv.Client(), srv.URL, "", "host-1")
	err := s.SendTracking(context.Background(), []domain.TrackingEvent{{Name: "x"}})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("SendTracking() error = %v, want 503", err)
	}
}
