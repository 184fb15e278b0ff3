package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// FeeSchedule holds the percentage rates deducted from each item subtotal:
// the platform commission and the payment processing charge.
type FeeSchedule struct {
	// PlatformRate is the commission fraction, e.g. 0.10 for a 10% fee
	PlatformRate decimal.Decimal
	// ProcessingRate is the payment processing fraction, e.g. 0.03
	ProcessingRate decimal.Decimal
}

// NewFeeSchedule creates a fee schedule with the given rates
func NewFeeSchedule(platformRate, processingRate decimal.Decimal) (FeeSchedule, error) {
	one := decimal.NewFromInt(1)
	if platformRate.IsNegative() || platformRate.GreaterThan(one) {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Platform fee rate must be between 0 and 1")
	}
	if processingRate.IsNegative() || processingRate.GreaterThan(one) {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Processing fee rate must be between 0 and 1")
	}
	if platformRate.Add(processingRate).GreaterThan(one) {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Combined fee rates cannot exceed 1")
	}
	return FeeSchedule{PlatformRate: platformRate, ProcessingRate: processingRate}, nil
}

// Split divides a gross amount into platform fee, processing fee and net.
// Fees are rounded to cents half-up and floor-clamped at zero; net absorbs the
// rounding remainder so platformFee + processingFee + net always equals gross.
func (f FeeSchedule) Split(gross decimal.Decimal) (platformFee, processingFee, net decimal.Decimal) {
	platformFee = gross.Mul(f.PlatformRate).Round(2)
	if platformFee.IsNegative() {
		platformFee = decimal.Zero
	}
	processingFee = gross.Mul(f.ProcessingRate).Round(2)
	if processingFee.IsNegative() {
		processingFee = decimal.Zero
	}
	net = gross.Sub(platformFee).Sub(processingFee)
	if net.IsNegative() {
		processingFee = gross.Sub(platformFee)
		if processingFee.IsNegative() {
			processingFee = decimal.Zero
			platformFee = gross
		}
		net = decimal.Zero
	}
	return platformFee, processingFee, net
}
