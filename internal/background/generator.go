package background

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// Generator produces a background for a design prompt. The result is opaque
// to the caller: a catalog template id or an image location.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SimulatedGenerator stands in for a design service: after a delay it answers
// with a random catalog template.
type SimulatedGenerator struct {
	catalog *Catalog
	delay   time.Duration
	pick    func(n int) int
}

func NewSimulatedGenerator(catalog *Catalog, delay time.Duration) *SimulatedGenerator {
	return &SimulatedGenerator{catalog: catalog, delay: delay, pick: rand.IntN}
}

func (g *SimulatedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if len(g.catalog.Templates) == 0 {
		return "", errors.New("catalog has no templates")
	}

	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	return g.catalog.Templates[g.pick(len(g.catalog.Templates))].ID, nil
}

// HTTPGenerator calls a remote design service.
type HTTPGenerator struct {
	url        string
	httpClient *http.Client
}

func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Result string `json:"result"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}
	if out.Result == "" {
		return "", errors.New("generator returned an empty result")
	}
	return out.Result, nil
}
