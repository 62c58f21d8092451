package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// SMSService delivers one-time codes through an HTTP SMS provider.
type SMSService struct {
	apiURL string
	apiKey string
	sender string
	client *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(apiURL, apiKey, sender string) *SMSService {
	return &SMSService{
		apiURL: apiURL,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type smsMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
	Code string `json:"code"`
}

// Send delivers the message to the mobile number. Transient provider
// failures are retried once before the error is returned.
func (s *SMSService) Send(ctx context.Context, mobile, text, code string) error {
	if s.apiURL == "" {
		log.Println("[SMS] provider not configured, skipping delivery")
		return nil
	}

	body, err := json.Marshal(smsMessage{
		To:   mobile,
		From: s.sender,
		Text: text,
		Code: code,
	})
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("sms provider returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
		}

		return nil
	})
}
