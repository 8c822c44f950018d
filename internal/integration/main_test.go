//go:build dev && integration

package integration

import (
	"log"
	"net/http"
	"os"
	"testing"
	"time"
)

// Global test-level variables
var baseURL string

// TestMain waits for a running visit-service instance before the
// endpoint tests hit it over HTTP.
func TestMain(m *testing.M) {
	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)
	for {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			log.Fatalf("visit-service not reachable at %s", baseURL)
		}
		time.Sleep(500 * time.Millisecond)
	}

	log.Printf("visit-service integration tests: baseURL=%s", baseURL)
	os.Exit(m.Run())
}
