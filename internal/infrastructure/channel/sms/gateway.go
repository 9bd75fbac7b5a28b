package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpGateway posts messages to a provider-agnostic HTTP endpoint. The actual
// vendor adapter terminates this shape on the other side.
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
	Sender string `json:"sender"`
	To     string `json:"to"`
	Text   string `json:"text"`
}

func (g *httpGateway) Send(ctx context.Context, senderID, phone, text string) error {
	payload, err := json.Marshal(gatewayPayload{Sender: senderID, To: phone, Text: text})
	if err != nil {
		return fmt.Errorf("marshalling sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building sms gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
