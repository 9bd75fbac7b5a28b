package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpGateway posts notifications to a provider-agnostic HTTP endpoint.
type httpGateway struct {
	url    string
	apiKey string
	client *http.Client
}

func newHTTPGateway(url, apiKey string) *httpGateway {
	return &httpGateway{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type gatewayPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (g *httpGateway) Send(ctx context.Context, deviceToken, title, body string) error {
	payload, err := json.Marshal(gatewayPayload{Token: deviceToken, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("marshalling push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building push gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
