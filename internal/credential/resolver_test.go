package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   Type
	}{
		{"delivery id", Claims{"deliveryId": "DEL-20250101-000001"}, TypeDelivery},
		{"collection id", Claims{"collectionId": "COL-20250101-000001"}, TypeCollection},
		{"delivery wins over collection", Claims{"deliveryId": "DEL-20250101-000001", "collectionId": "COL-20250101-000001"}, TypeDelivery},
		{"empty delivery id falls through", Claims{"deliveryId": "", "collectionId": "COL-20250101-000001"}, TypeCollection},
		{"numeric delivery id", Claims{"deliveryId": float64(17)}, TypeDelivery},
		{"boolean delivery id is not an identifier", Claims{"deliveryId": true, "collectionId": "COL-20250101-000001"}, TypeCollection},
		{"object collection id is not an identifier", Claims{"collectionId": map[string]any{"v": "x"}}, TypeUnknown},
		{"neither", Claims{"id": "cred-1"}, TypeUnknown},
		{"nil claims", nil, TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.claims))
		})
	}
}

func TestReconcileType(t *testing.T) {
	assert.Equal(t, TypeDelivery, ReconcileType(TypeDelivery, "OrgPartHarvestCredential"),
		"claims-derived type beats a disagreeing hint")
	assert.Equal(t, TypeDelivery, ReconcileType(TypeUnknown, "DeliveryCredential"),
		"hint is used only when detection failed")
	assert.Equal(t, TypeCollection, ReconcileType(TypeUnknown, "orgpartharvestcredential"))
	assert.Equal(t, TypeCollection, ReconcileType(TypeCollection, ""))
	assert.Equal(t, TypeUnknown, ReconcileType(TypeUnknown, "PassportCredential"))
	assert.Equal(t, TypeUnknown, ReconcileType(TypeUnknown, ""))
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeDelivery, ParseType(" Delivery "))
	assert.Equal(t, TypeCollection, ParseType("COLLECTION"))
	assert.Equal(t, TypeUnknown, ParseType("unknown"))
}

func TestDomainAndFallbackID(t *testing.T) {
	claims := Claims{"collectionId": "COL-20250101-000002", "credentialId": "cred-xyz", "seq": float64(42)}

	id, ok := DomainID(claims, TypeCollection)
	assert.True(t, ok)
	assert.Equal(t, "COL-20250101-000002", id)

	_, ok = DomainID(claims, TypeDelivery)
	assert.False(t, ok)

	id, ok = FallbackID(claims)
	assert.True(t, ok)
	assert.Equal(t, "cred-xyz", id)

	n, ok := claims.String("seq")
	assert.True(t, ok)
	assert.Equal(t, "42", n)

	_, ok = FallbackID(Claims{"id": ""})
	assert.False(t, ok)
}
