package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/verisite/visit-service/internal/models"
	"github.com/verisite/visit-service/internal/utils"
)

// VisitRepository persists visits and their attestation events. Events
// are insert-only; a visit row is created together with its CHECK_IN
// event inside one transaction, and a CHECK_OUT only ever appends a
// second event under the existing visit id.
type VisitRepository interface {
	// CreateWithCheckIn inserts the visit and its CHECK_IN event as a
	// single atomic unit. A unique index on LOWER(vendor_name) is the
	// source of truth for vendor uniqueness; its violation surfaces as
	// utils.ErrDuplicateVendor.
	CreateWithCheckIn(ctx context.Context, v *models.Visit, e *models.AttestationEvent) error
	// InsertCheckOut appends the CHECK_OUT event. The unique index on
	// (visit_id, event_type) is the storage backstop for "at most one
	// CHECK_OUT per visit"; its violation surfaces as
	// utils.ErrVisitAlreadyClosed.
	InsertCheckOut(ctx context.Context, e *models.AttestationEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	GetByVendorName(ctx context.Context, vendorName string) (*models.Visit, error)
	List(ctx context.Context) ([]*models.Visit, error)
	ListEventsByVisitID(ctx context.Context, visitID uuid.UUID) ([]*models.AttestationEvent, error)
	ListAllEvents(ctx context.Context) ([]*models.AttestationEvent, error)
}

type visitRepo struct {
	db DB
}

func NewVisitRepository(db DB) VisitRepository {
	return &visitRepo{db: db}
}

const (
	visitVendorUniqueConstraint   = "visits_vendor_name_lower_key"
	eventPerVisitUniqueConstraint = "attestation_events_visit_event_key"
)

func (r *visitRepo) CreateWithCheckIn(ctx context.Context, v *models.Visit, e *models.AttestationEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
        INSERT INTO visits (id, vendor_name)
        VALUES ($1, $2)
    `, v.ID, v.VendorName)
	if isUniqueViolation(err, visitVendorUniqueConstraint) {
		return utils.ErrDuplicateVendor
	}
	if err != nil {
		return err
	}

	if err := insertEvent(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *visitRepo) InsertCheckOut(ctx context.Context, e *models.AttestationEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertEvent(ctx, tx, e); err != nil {
		if isUniqueViolation(err, eventPerVisitUniqueConstraint) {
			return utils.ErrVisitAlreadyClosed
		}
		return err
	}
	return tx.Commit(ctx)
}

func insertEvent(ctx context.Context, tx pgx.Tx, e *models.AttestationEvent) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO attestation_events (
            id, visit_id, event_type, vendor_name,
            latitude, longitude, accuracy_meters, captured_at,
            photo_ref, photo_digest, device_public_key, signature,
            challenge_id, observer_metadata
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    `,
		e.ID, e.VisitID, e.EventType, e.VendorName,
		e.Latitude, e.Longitude, e.AccuracyMeters, e.CapturedAt,
		e.PhotoRef, e.PhotoDigest, e.DevicePublicKey, e.Signature,
		e.ChallengeID, e.ObserverMetadata,
	)
	return err
}

const baseSelectVisit = `
    SELECT v.id, v.vendor_name, v.created_at,
           EXISTS (
               SELECT 1 FROM attestation_events e
               WHERE e.visit_id = v.id AND e.event_type = 'CHECK_OUT'
           ) AS closed
    FROM visits v
`

func (r *visitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	row := r.db.QueryRow(ctx, baseSelectVisit+" WHERE v.id = $1", id)
	return scanVisit(row)
}

// GetByVendorName matches exactly the way the unique index on
// LOWER(vendor_name) does: case-insensitively, with whitespace
// preserved. " Acme" and "Acme" are distinct vendors.
func (r *visitRepo) GetByVendorName(ctx context.Context, vendorName string) (*models.Visit, error) {
	row := r.db.QueryRow(ctx, baseSelectVisit+" WHERE LOWER(v.vendor_name) = LOWER($1)", vendorName)
	return scanVisit(row)
}

func (r *visitRepo) List(ctx context.Context) ([]*models.Visit, error) {
	rows, err := r.db.Query(ctx, baseSelectVisit+" ORDER BY v.created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Visit
	for rows.Next() {
		v, err := scanVisitValues(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

const baseSelectEvent = `
    SELECT id, visit_id, event_type, vendor_name,
           latitude, longitude, accuracy_meters, captured_at,
           photo_ref, photo_digest, device_public_key, signature,
           challenge_id, observer_metadata, created_at
    FROM attestation_events
`

func (r *visitRepo) ListEventsByVisitID(ctx context.Context, visitID uuid.UUID) ([]*models.AttestationEvent, error) {
	rows, err := r.db.Query(ctx, baseSelectEvent+" WHERE visit_id = $1 ORDER BY created_at", visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *visitRepo) ListAllEvents(ctx context.Context) ([]*models.AttestationEvent, error) {
	rows, err := r.db.Query(ctx, baseSelectEvent+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func scanVisit(row pgx.Row) (*models.Visit, error) {
	var v models.Visit
	var closed bool
	err := row.Scan(&v.ID, &v.VendorName, &v.CreatedAt, &closed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.State = models.VisitStateOpen
	if closed {
		v.State = models.VisitStateClosed
	}
	return &v, nil
}

func scanVisitValues(rows pgx.Rows) (*models.Visit, error) {
	var v models.Visit
	var closed bool
	if err := rows.Scan(&v.ID, &v.VendorName, &v.CreatedAt, &closed); err != nil {
		return nil, err
	}
	v.State = models.VisitStateOpen
	if closed {
		v.State = models.VisitStateClosed
	}
	return &v, nil
}

func collectEvents(rows pgx.Rows) ([]*models.AttestationEvent, error) {
	var out []*models.AttestationEvent
	for rows.Next() {
		var e models.AttestationEvent
		err := rows.Scan(
			&e.ID, &e.VisitID, &e.EventType, &e.VendorName,
			&e.Latitude, &e.Longitude, &e.AccuracyMeters, &e.CapturedAt,
			&e.PhotoRef, &e.PhotoDigest, &e.DevicePublicKey, &e.Signature,
			&e.ChallengeID, &e.ObserverMetadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
