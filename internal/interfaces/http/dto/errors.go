package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInvalidTransition is used when a status change is not allowed
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeInsufficientStock is used when stock is insufficient
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeAmountMismatch is used when a reported amount disagrees with the stored one
	ErrCodeAmountMismatch = "ERR_AMOUNT_MISMATCH"
)

// Payment gateway error codes
const (
	// ErrCodeGatewayUnavailable is used when the payment provider cannot be reached
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
	// ErrCodeInvalidSignature is used when webhook signature verification fails
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
	// ErrCodeMalformedPayload is used when a webhook payload cannot be parsed
	ErrCodeMalformedPayload = "ERR_MALFORMED_PAYLOAD"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeAmountMismatch:    http.StatusUnprocessableEntity,

	// Gateway errors. Unavailable maps to 503 so callers and the provider's
	// retry mechanism treat it as transient.
	ErrCodeGatewayUnavailable: http.StatusServiceUnavailable,
	ErrCodeInvalidSignature:   http.StatusUnauthorized,
	ErrCodeMalformedPayload:   http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized format
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INVALID_TRANSITION":   ErrCodeInvalidTransition,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"AMOUNT_MISMATCH":      ErrCodeAmountMismatch,
	"GATEWAY_UNAVAILABLE":  ErrCodeGatewayUnavailable,
	"INVALID_SIGNATURE":    ErrCodeInvalidSignature,
	"EMPTY_CART":           ErrCodeInvalidInput,
	"INVALID_ADDRESS":      ErrCodeInvalidInput,
	"INVALID_AMOUNT":       ErrCodeInvalidInput,
	"DUPLICATE_PRODUCT":    ErrCodeInvalidInput,
	"PRODUCT_INACTIVE":     ErrCodeInvalidState,
	"STALE_PRICE":          ErrCodeInvalidState,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
