// Package e2e contains end-to-end tests that exercise a running cmd/server
// instance over HTTP, backed by an index directory built ahead of time by
// cmd/builder.
//
// Run with:
//
//	go test -v -tags=e2e -timeout=120s ./test/e2e/...
package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type e2eConfig struct {
	ServerURL string
}

func loadE2EConfig() e2eConfig {
	return e2eConfig{
		ServerURL: envOrDefault("E2E_SERVER_URL", "http://localhost:8080"),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestServerHealth verifies the server responds to both health probes.
func TestServerHealth(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	endpoints := []string{"/health/live", "/health/ready"}
	for _, path := range endpoints {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(cfg.ServerURL + path)
			if err != nil {
				t.Skipf("service unavailable: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

// TestSearchReturnsResults exercises a scored search against the
// pre-built index and checks that the response shape matches httpapi's
// contract.
func TestSearchReturnsResults(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	if _, err := client.Get(cfg.ServerURL + "/health/live"); err != nil {
		t.Skipf("server unavailable: %v", err)
	}

	resp, err := client.Get(cfg.ServerURL + "/api/v1/search?q=search&mode=scored&limit=5")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := result["results"]; !ok {
		t.Errorf("response missing \"results\" field: %v", result)
	}
}

// TestSearchWithSnippets verifies the snippets mode returns a snippet field
// per hit.
func TestSearchWithSnippets(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	if _, err := client.Get(cfg.ServerURL + "/health/live"); err != nil {
		t.Skipf("server unavailable: %v", err)
	}

	resp, err := client.Get(cfg.ServerURL + "/api/v1/search?q=search&mode=snippets&limit=3")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			DocID   int32   `json:"docId"`
			Score   float64 `json:"score"`
			Snippet string  `json:"snippet"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	for _, hit := range result.Results {
		if hit.Snippet == "" {
			t.Errorf("hit for doc %d has an empty snippet", hit.DocID)
		}
	}
}

// TestAdminReload verifies the reload endpoint re-loads the index directory
// and answers 200.
func TestAdminReload(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	if _, err := client.Get(cfg.ServerURL + "/health/live"); err != nil {
		t.Skipf("server unavailable: %v", err)
	}

	resp, err := client.Post(cfg.ServerURL+"/api/v1/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
