package gateway

// acmeIntentRequest is the request body for creating a payment intent
type acmeIntentRequest struct {
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// acmeIntentResponse is the provider's reply to an intent creation
type acmeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// acmeErrorResponse is the provider's error envelope
type acmeErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// acmeEvent is the webhook notification body
type acmeEvent struct {
	ID       string            `json:"id"`
	IntentID string            `json:"intent_id"`
	State    string            `json:"state"`
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Reason   string            `json:"reason,omitempty"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
