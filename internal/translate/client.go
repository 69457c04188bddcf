package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"polychat/internal/domain"
)

// ErrEmptyTranslation is returned when the service answers without text.
var ErrEmptyTranslation = errors.New("translation service returned no text")

// Client calls POST {Base}/translate.
type Client struct {
	Base   string
	APIKey string
	HTTP   *http.Client
}

// New returns a client for the service at base.
func New(base, apiKey string) *Client {
	return &Client{
		Base:   strings.TrimRight(base, "/"),
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate returns text rendered in target. The source language is detected
// by the service.
func (c *Client) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: "auto",
		Target: target.String(),
		Format: "text",
		APIKey: c.APIKey,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out translateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && out.Error != "" {
			return "", fmt.Errorf("translate: %s: %s", resp.Status, out.Error)
		}
		return "", fmt.Errorf("translate: %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("translate: decode response: %w", decodeErr)
	}
	if out.TranslatedText == "" {
		return "", ErrEmptyTranslation
	}
	return out.TranslatedText, nil
}

// Compile-time assertion that Client implements domain.Translator.
var _ domain.Translator = (*Client)(nil)
