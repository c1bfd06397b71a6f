package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils"
)

type (
	// Gateway sends a text message to a phone number. Implementations are
	// best-effort: callers treat failures as non-fatal side effects.
	Gateway interface {
		Send(ctx context.Context, toPhone string, body string) error
	}

	httpGateway struct {
		apiURL string
		apiKey string
		sender string
		client *http.Client
	}
)

// NewGateway builds a gateway from config. Without an SMS_API_URL the
// gateway runs in dev mode and only logs outgoing messages.
func NewGateway() Gateway {
	return &httpGateway{
		apiURL: utils.GetConfig("SMS_API_URL"),
		apiKey: utils.GetConfig("SMS_API_KEY"),
		sender: utils.GetConfig("SMS_SENDER_ID"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *httpGateway) Send(ctx context.Context, toPhone string, body string) error {
	if g.apiURL == "" {
		// Dev mode, not an error
		log.Printf("sms (dev mode) to %s: %s", toPhone, body)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":   toPhone,
		"from": g.sender,
		"body": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
