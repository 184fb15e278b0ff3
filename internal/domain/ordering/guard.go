package ordering

import (
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// BuyerRole names the only role allowed to place orders
const BuyerRole = "buyer"

// CheckoutGuard holds the caller facts evaluated before checkout runs.
// It is a pure precondition; it never touches storage.
type CheckoutGuard struct {
	CallerID uuid.UUID
	Role     string
	Verified bool
}

// Allow returns nil when the caller may check out, or a forbidden error
// naming the failed precondition.
func (g CheckoutGuard) Allow() error {
	if g.CallerID == uuid.Nil {
		return shared.NewDomainError("FORBIDDEN", "Caller identity is required")
	}
	if g.Role != BuyerRole {
		return shared.NewDomainError("FORBIDDEN", "Only buyers may place orders")
	}
	if !g.Verified {
		return shared.NewDomainError("FORBIDDEN", "Account must be verified before checkout")
	}
	return nil
}
