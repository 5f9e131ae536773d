// Intended for Docker HEALTHCHECK:
//   HEALTHCHECK CMD ["/ping"]

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort          = 8080
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"
	requestTimeout       = 2 * time.Second

	// exit codes
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

var (
	errRequest   = errors.New("request failed")
	errStatus    = errors.New("unexpected HTTP status")
	errDecode    = errors.New("decode error")
	errUnhealthy = errors.New("service reported unhealthy")
)

// healthResp mirrors the JSON body { "status": "ok" }.
type healthResp struct {
	Status string `json:"status"`
}

func main() {
	port := detectPort()
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := probe(ctx, http.DefaultClient, url); err != nil {
		log.Print(err)
		os.Exit(exitCode(err))
	}

	log.Printf("service healthy on port %d", port)
}

// probe GETs url and checks the reported status.
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errRequest, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d", errStatus, resp.StatusCode)
	}

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errDecode, err)
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		return fmt.Errorf("%w: %q", errUnhealthy, h.Status)
	}
	return nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errStatus):
		return codeBadHTTPStatus
	case errors.Is(err, errDecode):
		return codeDecodeError
	case errors.Is(err, errUnhealthy):
		return codeReportedUnhealthy
	default:
		return codeRequestFailed
	}
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort() int {
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			return p
		}
	}
	return defaultPort
}
