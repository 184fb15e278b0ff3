package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")

	// Order creation errors
	ErrEmptyCart         = NewDomainError("EMPTY_CART", "Cart contains no items")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidAddress    = NewDomainError("INVALID_ADDRESS", "Shipping address is incomplete")
	ErrStalePrice        = NewDomainError("STALE_PRICE", "Item price no longer matches the catalog")

	// State machine errors
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")

	// Payment errors
	ErrAmountMismatch     = NewDomainError("AMOUNT_MISMATCH", "Payment amount does not match order total")
	ErrGatewayUnavailable = NewDomainError("GATEWAY_UNAVAILABLE", "Payment gateway is temporarily unavailable")
	ErrInvalidSignature   = NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
)

// IsRetryable reports whether the error represents a transient condition
// that the caller (or the payment provider's delivery mechanism) should retry.
func IsRetryable(err error) bool {
	if domainErr, ok := err.(*DomainError); ok {
		switch domainErr.Code {
		case "GATEWAY_UNAVAILABLE", "CONCURRENCY_CONFLICT":
			return true
		}
		return false
	}
	// Unknown errors (database contention, I/O) default to retryable.
	return true
}
