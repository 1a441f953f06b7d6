package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"provenance/internal/credential"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Migrate creates the credential tables when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply credential schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// uniqueViolation maps a duplicate domain id onto sentinel.ErrAlreadyUsed.
func uniqueViolation(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", what, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("save %s: %w", what, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func qrColumns(qr *credential.QRCode) (string, string) {
	if qr == nil {
		return "", ""
	}
	return qr.Data, qr.ContentType
}

func qrFromColumns(data, contentType string) *credential.QRCode {
	if data == "" {
		return nil
	}
	return &credential.QRCode{Data: data, ContentType: contentType}
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// updateStatus locks the row, keeps revoked terminal and writes the change.
func updateStatus(ctx context.Context, db *sql.DB, table, id string, status credential.Status, now time.Time) error {
	return txcontext.Run(ctx, db, func(ctx context.Context) error {
		exec := execer(ctx, db)
		var current string
		err := exec.QueryRowContext(ctx, `SELECT status FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("credential %s: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock credential %s: %w", id, err)
		}
		next := nextStatus(credential.Status(current), status)
		if string(next) == current {
			return nil
		}
		if _, err := exec.ExecContext(ctx, `UPDATE `+table+` SET status = $2, updated_at = $3 WHERE id = $1`, id, string(next), now); err != nil {
			return fmt.Errorf("update credential %s status: %w", id, err)
		}
		return nil
	})
}

// PostgresCollectionStore persists collection credentials.
type PostgresCollectionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresCollectionStore(db *sql.DB) *PostgresCollectionStore {
	return &PostgresCollectionStore{db: db, now: time.Now}
}

const collectionColumns = `id, collection_id, bin_identifier, row_identifier, harvest_start_datetime,
	harvest_end_datetime, picker_id, picker_name, nzbn, orchard_id, recipient_did, recipient_email,
	status, encoded, qr_code, qr_content_type, created_at, updated_at`

func (s *PostgresCollectionStore) Save(ctx context.Context, c *credential.CollectionCredential) error {
	qr, qrType := qrColumns(c.QRCode)
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO collection_credentials (`+collectionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			encoded = EXCLUDED.encoded,
			qr_code = EXCLUDED.qr_code,
			qr_content_type = EXCLUDED.qr_content_type,
			updated_at = EXCLUDED.updated_at
	`,
		c.ID, c.CollectionID, c.BinIdentifier, c.RowIdentifier, c.HarvestStartDatetime,
		c.HarvestEndDatetime, c.PickerID, c.PickerName, c.NZBN, c.OrchardID, c.RecipientDID, c.RecipientEmail,
		string(c.Status), c.Encoded, qr, qrType, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, "collection "+c.CollectionID)
	}
	return nil
}

func (s *PostgresCollectionStore) FindByCredentialID(ctx context.Context, id string) (*credential.CollectionCredential, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collection_credentials WHERE id = $1`, id)
	return scanCollection(row, id)
}

func (s *PostgresCollectionStore) FindByDomainID(ctx context.Context, collectionID string) (*credential.CollectionCredential, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collection_credentials WHERE collection_id = $1`, collectionID)
	return scanCollection(row, collectionID)
}

func (s *PostgresCollectionStore) UpdateStatus(ctx context.Context, id string, status credential.Status) error {
	return updateStatus(ctx, s.db, "collection_credentials", id, status, s.now())
}

func scanCollection(row scanner, key string) (*credential.CollectionCredential, error) {
	var (
		c          credential.CollectionCredential
		end        sql.NullTime
		status     string
		qr, qrType string
	)
	err := row.Scan(
		&c.ID, &c.CollectionID, &c.BinIdentifier, &c.RowIdentifier, &c.HarvestStartDatetime,
		&end, &c.PickerID, &c.PickerName, &c.NZBN, &c.OrchardID, &c.RecipientDID, &c.RecipientEmail,
		&status, &c.Encoded, &qr, &qrType, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find collection %s: %w", key, err)
	}
	c.HarvestEndDatetime = nullableTime(end)
	c.Status = credential.Status(status)
	c.QRCode = qrFromColumns(qr, qrType)
	return &c, nil
}

// PostgresDeliveryStore persists delivery credentials.
type PostgresDeliveryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresDeliveryStore(db *sql.DB) *PostgresDeliveryStore {
	return &PostgresDeliveryStore{db: db, now: time.Now}
}

const deliveryColumns = `id, delivery_id, origin_address, destination_address, delivery_start_datetime,
	delivery_end_datetime, driver_id, driver_name, vehicle_id, collection_id, nzbn, recipient_did,
	recipient_email, status, encoded, qr_code, qr_content_type, created_at, updated_at`

func (s *PostgresDeliveryStore) Save(ctx context.Context, d *credential.DeliveryCredential) error {
	qr, qrType := qrColumns(d.QRCode)
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO delivery_credentials (`+deliveryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			encoded = EXCLUDED.encoded,
			qr_code = EXCLUDED.qr_code,
			qr_content_type = EXCLUDED.qr_content_type,
			updated_at = EXCLUDED.updated_at
	`,
		d.ID, d.DeliveryID, d.OriginAddress, d.DestinationAddress, d.DeliveryStartDatetime,
		d.DeliveryEndDatetime, d.DriverID, d.DriverName, d.VehicleID, d.CollectionID, d.NZBN, d.RecipientDID,
		d.RecipientEmail, string(d.Status), d.Encoded, qr, qrType, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, "delivery "+d.DeliveryID)
	}
	return nil
}

func (s *PostgresDeliveryStore) FindByCredentialID(ctx context.Context, id string) (*credential.DeliveryCredential, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM delivery_credentials WHERE id = $1`, id)
	return scanDelivery(row, id)
}

func (s *PostgresDeliveryStore) FindByDomainID(ctx context.Context, deliveryID string) (*credential.DeliveryCredential, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM delivery_credentials WHERE delivery_id = $1`, deliveryID)
	return scanDelivery(row, deliveryID)
}

func (s *PostgresDeliveryStore) UpdateStatus(ctx context.Context, id string, status credential.Status) error {
	return updateStatus(ctx, s.db, "delivery_credentials", id, status, s.now())
}

func scanDelivery(row scanner, key string) (*credential.DeliveryCredential, error) {
	var (
		d          credential.DeliveryCredential
		end        sql.NullTime
		status     string
		qr, qrType string
	)
	err := row.Scan(
		&d.ID, &d.DeliveryID, &d.OriginAddress, &d.DestinationAddress, &d.DeliveryStartDatetime,
		&end, &d.DriverID, &d.DriverName, &d.VehicleID, &d.CollectionID, &d.NZBN, &d.RecipientDID,
		&d.RecipientEmail, &status, &d.Encoded, &qr, &qrType, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delivery %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find delivery %s: %w", key, err)
	}
	d.DeliveryEndDatetime = nullableTime(end)
	d.Status = credential.Status(status)
	d.QRCode = qrFromColumns(qr, qrType)
	return &d, nil
}

// PostgresVerificationStore is the append-only verification log.
type PostgresVerificationStore struct {
	db *sql.DB
}

func NewPostgresVerificationStore(db *sql.DB) *PostgresVerificationStore {
	return &PostgresVerificationStore{db: db}
}

func (s *PostgresVerificationStore) Insert(ctx context.Context, rec *credential.VerificationRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("verification id %q: %w", rec.ID, err)
	}
	_, err = execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO credential_verifications (
			id, credential_id, credential_type, type_defaulted, user_id,
			mobile_application_id, verified, verified_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id, rec.CredentialID, string(rec.CredentialType), rec.TypeDefaulted, rec.UserID,
		rec.MobileApplicationID, rec.Verified, rec.VerifiedAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresVerificationStore) IsFirstVerification(ctx context.Context, credentialID string) (bool, error) {
	var exists bool
	err := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credential_verifications WHERE credential_id = $1)`, credentialID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check first verification: %w", err)
	}
	return !exists, nil
}

// ListByCredentialID returns records newest first.
func (s *PostgresVerificationStore) ListByCredentialID(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error) {
	return s.list(ctx, `WHERE credential_id = $1`, credentialID)
}

func (s *PostgresVerificationStore) list(ctx context.Context, where string, arg any) ([]*credential.VerificationRecord, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, credential_id, credential_type, type_defaulted, user_id,
			mobile_application_id, verified, verified_at, created_at
		FROM credential_verifications `+where+`
		ORDER BY verified_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	out := []*credential.VerificationRecord{}
	for rows.Next() {
		var (
			rec credential.VerificationRecord
			id  uuid.UUID
			typ string
		)
		if err := rows.Scan(&id, &rec.CredentialID, &typ, &rec.TypeDefaulted, &rec.UserID,
			&rec.MobileApplicationID, &rec.Verified, &rec.VerifiedAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		rec.ID = id.String()
		rec.CredentialType = credential.Type(typ)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}
