// Package credential holds the supply-chain credential records and the pure
// rules for telling collection credentials from delivery credentials.
package credential

import (
	"strings"
)

// Type is the kind of supply-chain event a credential attests.
type Type string

const (
	TypeCollection Type = "collection"
	TypeDelivery   Type = "delivery"
	TypeUnknown    Type = "unknown"
)

// Claim names carried in decoded credentials.
const (
	ClaimDeliveryID   = "deliveryId"
	ClaimCollectionID = "collectionId"
	ClaimID           = "id"
	ClaimCredentialID = "credentialId"
)

// Template type names the signing platform uses for each kind.
const (
	templateDelivery   = "deliverycredential"
	templateCollection = "orgpartharvestcredential"
)

// ParseType accepts the short names and the platform template names,
// case-insensitively. Anything else is TypeUnknown.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TypeDelivery), templateDelivery:
		return TypeDelivery
	case string(TypeCollection), templateCollection:
		return TypeCollection
	default:
		return TypeUnknown
	}
}

// Recognized reports whether t names a kind with a local store.
func (t Type) Recognized() bool {
	return t == TypeCollection || t == TypeDelivery
}

func (t Type) String() string {
	return string(t)
}

// Status is the lifecycle state of a locally registered credential.
type Status string

const (
	StatusPending Status = "pending"
	StatusIssued  Status = "issued"
	StatusFailed  Status = "failed"
	StatusRevoked Status = "revoked"
)
