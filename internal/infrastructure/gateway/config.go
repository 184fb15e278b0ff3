package gateway

import (
	"errors"
	"strings"
	"time"
)

// AcmeConfig holds the credentials and endpoints for the Acme payment provider
type AcmeConfig struct {
	// BaseURL is the provider API base URL, e.g. https://api.acmepay.example
	BaseURL string
	// APIKey is the secret API key sent as a bearer token
	APIKey string
	// WebhookSecret is the shared secret used to verify webhook signatures
	WebhookSecret string
	// Timeout bounds each provider API call
	Timeout time.Duration
	// SignatureTolerance is the maximum accepted age of a webhook signature
	// timestamp; older (or future-dated) deliveries are rejected
	SignatureTolerance time.Duration
}

// Validate checks that the configuration is usable
func (c *AcmeConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("acme: base URL is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("acme: API key is required")
	}
	if strings.TrimSpace(c.WebhookSecret) == "" {
		return errors.New("acme: webhook secret is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SignatureTolerance <= 0 {
		c.SignatureTolerance = 5 * time.Minute
	}
	return nil
}
