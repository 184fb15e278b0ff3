package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// Caller identity headers. The marketplace sits behind an API gateway that
// authenticates the session and forwards the caller facts; handlers trust
// these headers and never see credentials.
const (
	HeaderUserID       = "X-User-ID"
	HeaderUserRole     = "X-User-Role"
	HeaderUserVerified = "X-User-Verified"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getCallerID extracts the authenticated caller's ID from the forwarded headers
func getCallerID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(HeaderUserID)
	if raw == "" {
		return uuid.Nil, errors.New("caller identity missing")
	}
	return uuid.Parse(raw)
}

// getCheckoutGuard assembles the checkout precondition from forwarded headers
func getCheckoutGuard(c *gin.Context) (ordering.CheckoutGuard, error) {
	callerID, err := getCallerID(c)
	if err != nil {
		return ordering.CheckoutGuard{}, err
	}
	return ordering.CheckoutGuard{
		CallerID: callerID,
		Role:     c.GetHeader(HeaderUserRole),
		Verified: c.GetHeader(HeaderUserVerified) == "true",
	}, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain and gateway errors to HTTP responses.
// Retryable conditions surface as 5xx so clients and the payment provider's
// delivery mechanism know to try again.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	switch {
	case errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrSignatureExpired):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
	case errors.Is(err, payment.ErrMalformedPayload):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMalformedPayload, "Webhook payload could not be parsed")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeGatewayUnavailable, "Payment provider is temporarily unavailable")
	case errors.Is(err, payment.ErrGatewayRequestFailed) || errors.Is(err, payment.ErrGatewayInvalidResponse):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeGatewayUnavailable, "Payment provider rejected the request")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
