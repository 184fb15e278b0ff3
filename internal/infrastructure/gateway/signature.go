package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/payment"
)

// signatureScheme is the version tag carried in the signature header
const signatureScheme = "v1"

// parsedSignature holds the decoded parts of a signature header
type parsedSignature struct {
	timestamp  time.Time
	signatures [][]byte
}

// parseSignatureHeader parses a header of the form
// "t=<unix>,v1=<hex>[,v1=<hex>...]". Multiple v1 entries appear while the
// provider rolls the webhook secret.
func parseSignatureHeader(header string) (*parsedSignature, error) {
	parsed := &parsedSignature{}

	for _, pair := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, payment.ErrInvalidSignature
			}
			parsed.timestamp = time.Unix(unix, 0)
		case signatureScheme:
			sig, err := hex.DecodeString(value)
			if err != nil {
				return nil, payment.ErrInvalidSignature
			}
			parsed.signatures = append(parsed.signatures, sig)
		}
	}

	if parsed.timestamp.IsZero() || len(parsed.signatures) == 0 {
		return nil, payment.ErrInvalidSignature
	}
	return parsed, nil
}

// computeSignature computes the HMAC-SHA256 of "<unix>.<payload>" with the
// webhook secret
func computeSignature(secret string, timestamp time.Time, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// verifySignature checks the signature header against the payload. The
// timestamp must fall within the tolerance window in either direction.
func verifySignature(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Sub(parsed.timestamp)
	if age > tolerance || age < -tolerance {
		return payment.ErrSignatureExpired
	}

	expected := computeSignature(secret, parsed.timestamp, payload)
	for _, sig := range parsed.signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return payment.ErrInvalidSignature
}
