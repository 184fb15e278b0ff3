package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"total_amount": true,
	"placed_at":    true,
	"confirmed_at": true,
	"shipped_at":   true,
	"delivered_at": true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"amount":       true,
	"provider":     true,
	"completed_at": true,
}

// FinancialRecordSortFields contains allowed sort fields for ledger records
var FinancialRecordSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"status":         true,
	"gross_amount":   true,
	"platform_fee":   true,
	"processing_fee": true,
	"net_amount":     true,
	"cleared_at":     true,
	"paid_at":        true,
}

// StockItemSortFields contains allowed sort fields for stock items
var StockItemSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"category":   true,
	"price":      true,
	"available":  true,
}
