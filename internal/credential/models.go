package credential

import "time"

// QRCode is the rendered image of an issued credential, base64 encoded.
type QRCode struct {
	Data        string `json:"qrcode"`
	ContentType string `json:"type,omitempty"`
}

// CollectionCredential is a harvest collection registered locally. ID is
// the signing platform's credential id.
type CollectionCredential struct {
	ID                   string     `json:"id"`
	CollectionID         string     `json:"collectionId"`
	BinIdentifier        string     `json:"binIdentifier"`
	RowIdentifier        string     `json:"rowIdentifier"`
	HarvestStartDatetime time.Time  `json:"harvestStartDatetime"`
	HarvestEndDatetime   *time.Time `json:"harvestEndDatetime,omitempty"`
	PickerID             string     `json:"pickerId"`
	PickerName           string     `json:"pickerName"`
	NZBN                 string     `json:"nzbn"`
	OrchardID            string     `json:"orchardId"`
	RecipientDID         string     `json:"recipientDid,omitempty"`
	RecipientEmail       string     `json:"recipientEmail,omitempty"`
	Status               Status     `json:"status"`
	Encoded              string     `json:"encoded,omitempty"`
	QRCode               *QRCode    `json:"qrCode,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// DeliveryCredential is a produce delivery registered locally.
type DeliveryCredential struct {
	ID                    string     `json:"id"`
	DeliveryID            string     `json:"deliveryId"`
	OriginAddress         string     `json:"originAddress"`
	DestinationAddress    string     `json:"destinationAddress"`
	DeliveryStartDatetime time.Time  `json:"deliveryStartDatetime"`
	DeliveryEndDatetime   *time.Time `json:"deliveryEndDatetime,omitempty"`
	DriverID              string     `json:"driverId"`
	DriverName            string     `json:"driverName"`
	VehicleID             string     `json:"vehicleId"`
	CollectionID          string     `json:"collectionId,omitempty"`
	NZBN                  string     `json:"nzbn"`
	RecipientDID          string     `json:"recipientDid,omitempty"`
	RecipientEmail        string     `json:"recipientEmail,omitempty"`
	Status                Status     `json:"status"`
	Encoded               string     `json:"encoded,omitempty"`
	QRCode                *QRCode    `json:"qrCode,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// VerificationRecord is one append-only verification attempt. TypeDefaulted
// marks records whose type could not be determined and was set to
// collection.
type VerificationRecord struct {
	ID                  string    `json:"id"`
	CredentialID        string    `json:"credentialId"`
	CredentialType      Type      `json:"credentialType"`
	TypeDefaulted       bool      `json:"typeDefaulted,omitempty"`
	UserID              string    `json:"userId,omitempty"`
	MobileApplicationID string    `json:"mobileApplicationId,omitempty"`
	Verified            bool      `json:"verified"`
	VerifiedAt          time.Time `json:"verifiedAt"`
	CreatedAt           time.Time `json:"createdAt"`
}
