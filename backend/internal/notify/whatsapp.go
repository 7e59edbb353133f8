package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhatsAppSink posts text messages to a WhatsApp Cloud API compatible endpoint.
type WhatsAppSink struct {
	url    string
	token  string
	client *http.Client
}

// NewWhatsAppSink creates the sink; url is the full messages endpoint.
func NewWhatsAppSink(url, token string, timeout time.Duration) *WhatsAppSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppSink{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type whatsAppText struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

// Send delivers payload.Body as a text message. recipient is an E.164 number;
// the leading + is stripped as the API expects digits only.
func (s *WhatsAppSink) Send(ctx context.Context, channel, recipient string, payload Payload) error {
	if channel != ChannelWhatsApp {
		return fmt.Errorf("whatsapp: canal não suportado %q", channel)
	}

	body, err := json.Marshal(whatsAppRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(recipient, "+"),
		Type:             "text",
		Text:             whatsAppText{Body: payload.Body, PreviewURL: true},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
