// Package e2e contains smoke tests run against a live local deployment.
// They are skipped unless E2E_BASE_URL points at a running server, e.g.
//
//	E2E_BASE_URL=http://localhost:9093 go test ./deployments/localdev/e2e/
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
)

func baseURL(t *testing.T) string {
	t.Helper()
	v := os.Getenv("E2E_BASE_URL")
	if v == "" {
		t.Skip("E2E_BASE_URL not set; skipping live smoke test")
	}
	return v
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, payload any, out any) int {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndOpenAPI(t *testing.T) {
	b := baseURL(t)
	for _, path := range []string{"/health", "/ready", "/api/openapi.json", "/metrics"} {
		resp, err := http.Get(b + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestAlertLifecycle_Minimal(t *testing.T) {
	b := baseURL(t)

	var created struct {
		Data struct {
			Alert struct {
				ID string `json:"id"`
			} `json:"alert"`
		} `json:"data"`
	}
	status := postJSON(t, b+"/api/v1/alerts", map[string]any{
		"type":    "custom_event",
		"title":   "e2e smoke alert",
		"message": "raised by the localdev smoke test",
	}, &created)
	if status != 201 {
		t.Fatalf("create status=%d", status)
	}
	id := created.Data.Alert.ID
	if id == "" {
		t.Fatal("create returned no alert id")
	}

	if status := getJSON(t, b+"/api/v1/alerts/"+id, nil); status != 200 {
		t.Fatalf("get alert status=%d", status)
	}

	req, _ := http.NewRequest(http.MethodPut, b+"/api/v1/alerts/"+id+"/resolve",
		bytes.NewReader([]byte(`{"user":"e2e","resolution":"smoke test cleanup"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("resolve status=%d", resp.StatusCode)
	}

	if status := getJSON(t, b+"/api/v1/alerts/"+id, nil); status != 404 {
		t.Fatalf("resolved alert should leave the active set, got status=%d", status)
	}
}

func TestStatsAndChannels_Minimal(t *testing.T) {
	b := baseURL(t)

	var stats struct {
		Status string `json:"status"`
		Data   struct {
			Channels []string `json:"channels"`
		} `json:"data"`
	}
	if status := getJSON(t, b+"/api/v1/alerts/stats", &stats); status != 200 {
		t.Fatalf("stats status=%d", status)
	}
	if stats.Status != "success" {
		t.Fatalf("stats envelope status=%q", stats.Status)
	}
	if len(stats.Data.Channels) == 0 {
		t.Fatal("expected at least one registered channel")
	}

	if status := getJSON(t, fmt.Sprintf("%s/api/v1/channels", b), nil); status != 200 {
		t.Fatalf("channels status=%d", status)
	}
}
