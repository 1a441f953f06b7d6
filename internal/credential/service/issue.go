package service

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"provenance/internal/credential"
	"provenance/internal/signing"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
)

var nzbnPattern = regexp.MustCompile(`^\d{13}$`)

// IssueCollectionRequest describes a harvest collection to register and sign.
// CollectionID is generated when empty.
type IssueCollectionRequest struct {
	CollectionID         string     `json:"collectionId,omitempty"`
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
}

func (r IssueCollectionRequest) validate() error {
	switch {
	case r.BinIdentifier == "", r.RowIdentifier == "", r.PickerID == "", r.PickerName == "", r.OrchardID == "":
		return dErrors.New(dErrors.CodeValidation, "binIdentifier, rowIdentifier, pickerId, pickerName and orchardId are required")
	case r.HarvestStartDatetime.IsZero():
		return dErrors.New(dErrors.CodeValidation, "harvestStartDatetime is required")
	case !nzbnPattern.MatchString(r.NZBN):
		return dErrors.New(dErrors.CodeValidation, "NZBN must be exactly 13 digits")
	case r.CollectionID != "" && !credential.ValidCollectionID(r.CollectionID):
		return dErrors.New(dErrors.CodeValidation, "invalid collection id format, expected COL-YYYYMMDD-NNNNNN")
	case r.HarvestEndDatetime != nil && !r.HarvestEndDatetime.After(r.HarvestStartDatetime):
		return dErrors.New(dErrors.CodeValidation, "harvest end datetime must be after harvest start datetime")
	}
	return nil
}

// IssueDeliveryRequest describes a delivery to register and sign.
// DeliveryID is generated when empty.
type IssueDeliveryRequest struct {
	DeliveryID            string     `json:"deliveryId,omitempty"`
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
}

func (r IssueDeliveryRequest) validate() error {
	switch {
	case r.OriginAddress == "", r.DestinationAddress == "", r.DriverID == "", r.DriverName == "", r.VehicleID == "":
		return dErrors.New(dErrors.CodeValidation, "originAddress, destinationAddress, driverId, driverName and vehicleId are required")
	case r.DeliveryStartDatetime.IsZero():
		return dErrors.New(dErrors.CodeValidation, "deliveryStartDatetime is required")
	case !nzbnPattern.MatchString(r.NZBN):
		return dErrors.New(dErrors.CodeValidation, "NZBN must be exactly 13 digits")
	case r.DeliveryID != "" && !credential.ValidDeliveryID(r.DeliveryID):
		return dErrors.New(dErrors.CodeValidation, "invalid delivery id format, expected DEL-YYYYMMDD-NNNNNN")
	case r.CollectionID != "" && !credential.ValidCollectionID(r.CollectionID):
		return dErrors.New(dErrors.CodeValidation, "invalid collection id format, expected COL-YYYYMMDD-NNNNNN")
	case r.DeliveryEndDatetime != nil && !r.DeliveryEndDatetime.After(r.DeliveryStartDatetime):
		return dErrors.New(dErrors.CodeValidation, "delivery end datetime must be after delivery start datetime")
	}
	return nil
}

// IssueCollection signs a collection credential and registers it locally.
func (s *Service) IssueCollection(ctx context.Context, req IssueCollectionRequest) (*credential.CollectionCredential, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	collectionID := req.CollectionID
	if collectionID == "" {
		id, err := s.collectionIDs.Next()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate collection id")
		}
		collectionID = id
	} else if err := s.ensureUnused(ctx, credential.TypeCollection, collectionID); err != nil {
		return nil, err
	}

	payload := s.basePayload(s.cfg.CollectionTypeName, "Harvest Collection", req.RecipientDID)
	payload[credential.ClaimCollectionID] = collectionID
	payload["binIdentifier"] = req.BinIdentifier
	payload["rowIdentifier"] = req.RowIdentifier
	payload["harvestStartDatetime"] = req.HarvestStartDatetime.UTC().Format(time.RFC3339)
	if req.HarvestEndDatetime != nil {
		payload["harvestEndDatetime"] = req.HarvestEndDatetime.UTC().Format(time.RFC3339)
	}
	payload["pickerId"] = req.PickerID
	payload["pickerName"] = req.PickerName
	payload["nzbn"] = req.NZBN
	payload["orchardId"] = req.OrchardID

	signed, qr, err := s.sign(ctx, payload)
	if err != nil {
		s.metrics.IncIssuance(string(credential.TypeCollection), "upstream_error")
		return nil, err
	}

	now := s.now()
	c := &credential.CollectionCredential{
		ID:                   signed.ID,
		CollectionID:         collectionID,
		BinIdentifier:        req.BinIdentifier,
		RowIdentifier:        req.RowIdentifier,
		HarvestStartDatetime: req.HarvestStartDatetime,
		HarvestEndDatetime:   req.HarvestEndDatetime,
		PickerID:             req.PickerID,
		PickerName:           req.PickerName,
		NZBN:                 req.NZBN,
		OrchardID:            req.OrchardID,
		RecipientDID:         req.RecipientDID,
		RecipientEmail:       req.RecipientEmail,
		Status:               credential.StatusIssued,
		Encoded:              signed.Encoded,
		QRCode:               qr,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.collections.Save(ctx, c); err != nil {
		s.metrics.IncIssuance(string(credential.TypeCollection), "store_error")
		return nil, saveError(err, "collection")
	}
	s.metrics.IncIssuance(string(credential.TypeCollection), "success")
	s.logger.InfoContext(ctx, "collection credential issued",
		"credential_id", c.ID,
		"collection_id", collectionID,
	)
	return c, nil
}

// IssueDelivery signs a delivery credential and registers it locally.
func (s *Service) IssueDelivery(ctx context.Context, req IssueDeliveryRequest) (*credential.DeliveryCredential, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	deliveryID := req.DeliveryID
	if deliveryID == "" {
		id, err := s.deliveryIDs.Next()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate delivery id")
		}
		deliveryID = id
	} else if err := s.ensureUnused(ctx, credential.TypeDelivery, deliveryID); err != nil {
		return nil, err
	}

	payload := s.basePayload(s.cfg.DeliveryTypeName, "Produce Delivery", req.RecipientDID)
	payload[credential.ClaimDeliveryID] = deliveryID
	payload["originAddress"] = req.OriginAddress
	payload["destinationAddress"] = req.DestinationAddress
	payload["deliveryStartDatetime"] = req.DeliveryStartDatetime.UTC().Format(time.RFC3339)
	if req.DeliveryEndDatetime != nil {
		payload["deliveryEndDatetime"] = req.DeliveryEndDatetime.UTC().Format(time.RFC3339)
	}
	payload["driverId"] = req.DriverID
	payload["driverName"] = req.DriverName
	payload["vehicleId"] = req.VehicleID
	payload["nzbn"] = req.NZBN
	if req.CollectionID != "" {
		payload["linkedCollectionId"] = req.CollectionID
	}

	signed, qr, err := s.sign(ctx, payload)
	if err != nil {
		s.metrics.IncIssuance(string(credential.TypeDelivery), "upstream_error")
		return nil, err
	}

	now := s.now()
	d := &credential.DeliveryCredential{
		ID:                    signed.ID,
		DeliveryID:            deliveryID,
		OriginAddress:         req.OriginAddress,
		DestinationAddress:    req.DestinationAddress,
		DeliveryStartDatetime: req.DeliveryStartDatetime,
		DeliveryEndDatetime:   req.DeliveryEndDatetime,
		DriverID:              req.DriverID,
		DriverName:            req.DriverName,
		VehicleID:             req.VehicleID,
		CollectionID:          req.CollectionID,
		NZBN:                  req.NZBN,
		RecipientDID:          req.RecipientDID,
		RecipientEmail:        req.RecipientEmail,
		Status:                credential.StatusIssued,
		Encoded:               signed.Encoded,
		QRCode:                qr,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.deliveries.Save(ctx, d); err != nil {
		s.metrics.IncIssuance(string(credential.TypeDelivery), "store_error")
		return nil, saveError(err, "delivery")
	}
	s.metrics.IncIssuance(string(credential.TypeDelivery), "success")
	s.logger.InfoContext(ctx, "delivery credential issued",
		"credential_id", d.ID,
		"delivery_id", deliveryID,
	)
	return d, nil
}

// Collection returns a registered collection credential by platform id.
func (s *Service) Collection(ctx context.Context, id string) (*credential.CollectionCredential, error) {
	c, err := s.collections.FindByCredentialID(ctx, id)
	if err != nil {
		return nil, notRegistered(credential.TypeCollection, id, err)
	}
	return c, nil
}

// Delivery returns a registered delivery credential by platform id.
func (s *Service) Delivery(ctx context.Context, id string) (*credential.DeliveryCredential, error) {
	d, err := s.deliveries.FindByCredentialID(ctx, id)
	if err != nil {
		return nil, notRegistered(credential.TypeDelivery, id, err)
	}
	return d, nil
}

func (s *Service) ensureUnused(ctx context.Context, t credential.Type, domainID string) error {
	_, err := s.lookupExternalID(ctx, t, domainID)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeConflict, string(t)+" id "+domainID+" already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up credential")
	}
}

func saveError(err error, kind string) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.Wrap(err, dErrors.CodeConflict, kind+" id already registered")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+kind+" credential")
}

func (s *Service) basePayload(typeName, name, subject string) map[string]any {
	payload := map[string]any{
		"type": typeName,
		"name": name,
	}
	if s.cfg.IssuerDID != "" {
		payload["issuer"] = map[string]any{"id": s.cfg.IssuerDID}
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		payload["sub"] = subject
	}
	return payload
}

// sign signs payload as a revocable compact credential. The QR code is best
// effort and a failure leaves it nil.
func (s *Service) sign(ctx context.Context, payload map[string]any) (*signing.SignedCredential, *credential.QRCode, error) {
	signed, err := s.platform.SignCompact(ctx, signing.SignRequest{Payload: payload, Revocable: true})
	if err != nil {
		return nil, nil, err
	}
	if signed.ID == "" {
		return nil, nil, dErrors.New(dErrors.CodeUpstream, "signing platform returned no credential id")
	}

	img, err := s.platform.QRCode(ctx, signed.Encoded)
	if err != nil {
		s.logger.WarnContext(ctx, "qr code generation failed",
			"credential_id", signed.ID,
			"error", err,
		)
		return signed, nil, nil
	}
	return signed, &credential.QRCode{
		Data:        base64.StdEncoding.EncodeToString(img.Image),
		ContentType: img.ContentType,
	}, nil
}
