package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/payment"
)

const (
	acmeProviderName = "acme"
	acmeIntentsPath  = "/v1/payment_intents"
)

// AcmeAdapter implements the payment.Gateway port against the Acme provider's
// HTTP API
type AcmeAdapter struct {
	config     *AcmeConfig
	httpClient *http.Client
	// now is swapped in tests to pin signature-tolerance checks
	now func() time.Time
}

// NewAcmeAdapter creates a new Acme gateway adapter
func NewAcmeAdapter(config *AcmeConfig) (*AcmeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &AcmeAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		now: time.Now,
	}, nil
}

// Provider returns the provider name recorded on payments
func (a *AcmeAdapter) Provider() string {
	return acmeProviderName
}

// CreateIntent creates a payment intent at the provider for the exact order
// total. The order and payment IDs travel in intent metadata and come back on
// every webhook event.
func (a *AcmeAdapter) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"order_id":   req.OrderID.String(),
		"payment_id": req.PaymentID.String(),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	body := acmeIntentRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Description: req.Description,
		Metadata:    metadata,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("acme: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, acmeIntentsPath, bodyBytes, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var respData acmeIntentResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	if respData.ID == "" {
		return nil, fmt.Errorf("%w: missing intent ID", payment.ErrGatewayInvalidResponse)
	}

	status, _ := payment.NormalizeProviderState(respData.Status)

	return &payment.CreateIntentResponse{
		IntentID:     respData.ID,
		ClientSecret: respData.ClientSecret,
		Status:       status,
		RawResponse:  string(respBody),
	}, nil
}

// VerifyAndParse verifies the webhook signature header and parses the payload
// into a ProviderEvent. Unrecognized provider states normalize to PROCESSING
// with StateKnown false so the caller can log the fallback.
func (a *AcmeAdapter) VerifyAndParse(payload []byte, signatureHeader string) (*payment.ProviderEvent, error) {
	if err := verifySignature(a.config.WebhookSecret, payload, signatureHeader,
		a.config.SignatureTolerance, a.now()); err != nil {
		return nil, err
	}

	var event acmeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
	}
	if event.ID == "" || event.IntentID == "" {
		return nil, fmt.Errorf("%w: missing event or intent ID", payment.ErrMalformedPayload)
	}

	parsed := &payment.ProviderEvent{
		ExternalEventID: event.ID,
		IntentID:        event.IntentID,
		RawState:        event.State,
		Currency:        event.Currency,
		Reason:          event.Reason,
		RawPayload:      string(payload),
	}

	if event.Created > 0 {
		parsed.OccurredAt = time.Unix(event.Created, 0)
	}

	if orderID, ok := event.Metadata["order_id"]; ok {
		if id, err := uuid.Parse(orderID); err == nil {
			parsed.OrderID = id
		}
	}

	if event.Amount != "" {
		amount, err := decimal.NewFromString(event.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount %q", payment.ErrMalformedPayload, event.Amount)
		}
		parsed.Amount = amount
	}

	parsed.Status, parsed.StateKnown = payment.NormalizeProviderState(event.State)

	return parsed, nil
}

// doRequest performs an HTTP request to the Acme API
func (a *AcmeAdapter) doRequest(ctx context.Context, method, path string, body []byte, idempotencyKey string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("acme: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are retryable provider outages
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp acmeErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", payment.ErrGatewayRequestFailed,
				errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// Ensure AcmeAdapter implements the Gateway port
var _ payment.Gateway = (*AcmeAdapter)(nil)
