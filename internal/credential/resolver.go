package credential

import (
	"fmt"
	"strconv"
)

// Claims is a decoded credential's claim set.
type Claims map[string]any

// String returns the claim as a string. Numbers are formatted. Booleans,
// objects, arrays and empty strings report false: an identifier claim must
// carry a usable value, so `"deliveryId": true` does not mark a delivery.
func (c Claims) String(name string) (string, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case fmt.Stringer:
		s = t.String()
	default:
		return "", false
	}
	return s, s != ""
}

// DetectType classifies claims by their domain identifier. A delivery
// identifier wins over a collection identifier.
func DetectType(claims Claims) Type {
	if _, ok := claims.String(ClaimDeliveryID); ok {
		return TypeDelivery
	}
	if _, ok := claims.String(ClaimCollectionID); ok {
		return TypeCollection
	}
	return TypeUnknown
}

// ReconcileType combines the detected type with a caller hint. Signed
// claims are authoritative, so the hint only applies when detection failed.
func ReconcileType(detected Type, callerProvided string) Type {
	if detected.Recognized() {
		return detected
	}
	return ParseType(callerProvided)
}

// DomainID returns the type-specific domain identifier claim.
func DomainID(claims Claims, t Type) (string, bool) {
	switch t {
	case TypeDelivery:
		return claims.String(ClaimDeliveryID)
	case TypeCollection:
		return claims.String(ClaimCollectionID)
	default:
		return "", false
	}
}

// FallbackID returns the bare id or credentialId claim.
func FallbackID(claims Claims) (string, bool) {
	if id, ok := claims.String(ClaimID); ok {
		return id, true
	}
	return claims.String(ClaimCredentialID)
}
