package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is a value object representing the delivery destination of
// an order. It is immutable once attached to an order and is persisted as a
// JSON column alongside the order row.
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// NewShippingAddress creates a validated ShippingAddress.
// Name, phone, line1, city, region, postal code and country are required.
func NewShippingAddress(name, phone, line1, line2, city, region, postalCode, country string) (ShippingAddress, error) {
	addr := ShippingAddress{
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
		Line1:      strings.TrimSpace(line1),
		Line2:      strings.TrimSpace(line2),
		City:       strings.TrimSpace(city),
		Region:     strings.TrimSpace(region),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.TrimSpace(country),
	}
	if err := addr.Validate(); err != nil {
		return ShippingAddress{}, err
	}
	return addr, nil
}

// Validate checks that all required address fields are present
func (a ShippingAddress) Validate() error {
	missing := a.missingFields()
	if len(missing) > 0 {
		return fmt.Errorf("shipping address is missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(a.Name) > 200 {
		return fmt.Errorf("recipient name cannot exceed 200 characters")
	}
	if len(a.Country) != 2 {
		return fmt.Errorf("country must be a two-letter ISO code")
	}
	return nil
}

// IsComplete returns true if all required fields are present
func (a ShippingAddress) IsComplete() bool {
	return len(a.missingFields()) == 0
}

func (a ShippingAddress) missingFields() []string {
	var missing []string
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Phone == "" {
		missing = append(missing, "phone")
	}
	if a.Line1 == "" {
		missing = append(missing, "line1")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.Region == "" {
		missing = append(missing, "region")
	}
	if a.PostalCode == "" {
		missing = append(missing, "postal_code")
	}
	if a.Country == "" {
		missing = append(missing, "country")
	}
	return missing
}

// String returns a single-line representation suitable for logs
func (a ShippingAddress) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City, a.Region, a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer, storing the address as JSON
func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSON column retrieval
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}
	return json.Unmarshal(data, a)
}
