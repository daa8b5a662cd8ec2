package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// CountryCode is prefixed to ten digit local numbers.
const CountryCode = "57"

var ErrInvalidPhone = errors.New("invalid phone number")

// WhatsApp sends text messages through the WhatsApp Cloud API.
type WhatsApp struct {
	apiURL  string
	phoneID string
	token   string
	client  *http.Client
}

func NewWhatsApp(apiURL, phoneID, token string) *WhatsApp {
	return &WhatsApp{
		apiURL:  strings.TrimRight(apiURL, "/"),
		phoneID: phoneID,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (w *WhatsApp) Send(ctx context.Context, phone, text string) error {
	to, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = text
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.apiURL, w.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("whatsapp api %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("whatsapp api %d", resp.StatusCode)
	}
	slog.InfoContext(ctx, "WhatsApp message sent", "to", to)
	return nil
}

// NormalizePhone strips formatting and prefixes the country code to local
// numbers.
func NormalizePhone(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	switch {
	case len(digits) == 10:
		return CountryCode + digits, nil
	case len(digits) > 10 && len(digits) <= 15:
		return digits, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
}
