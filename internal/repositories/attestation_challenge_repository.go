package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/verisite/visit-service/internal/models"
)

// AttestationChallengeRepository manages the lifecycle of single-use
// attestation challenges. Challenges are never deleted; consumption
// sets used_at exactly once via a conditional update so that under N
// concurrent claims for the same id, exactly one commits.
type AttestationChallengeRepository interface {
	// Create stores a new unused challenge.
	Create(ctx context.Context, c *models.AttestationChallenge) error
	// Claim atomically marks the challenge used. It returns the stored
	// challenge and claimed=true for the single caller whose update
	// committed; claimed=false with a nil challenge when the row does
	// not exist or was already used.
	Claim(ctx context.Context, id uuid.UUID) (c *models.AttestationChallenge, claimed bool, err error)
	// GetByID returns the challenge or nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.AttestationChallenge, error)
}

type attestationChallengeRepo struct {
	db DB
}

func NewAttestationChallengeRepository(db DB) AttestationChallengeRepository {
	return &attestationChallengeRepo{db: db}
}

func (r *attestationChallengeRepo) Create(ctx context.Context, c *models.AttestationChallenge) error {
	q := `
        INSERT INTO attestation_challenges (id, nonce, expires_at)
        VALUES ($1, $2, $3)
    `
	_, err := r.db.Exec(ctx, q, c.ID, c.Nonce, c.ExpiresAt)
	return err
}

func (r *attestationChallengeRepo) Claim(ctx context.Context, id uuid.UUID) (*models.AttestationChallenge, bool, error) {
	// The used_at IS NULL guard is the linearization point: the row is
	// claimed by whichever concurrent update commits first.
	q := `
        UPDATE attestation_challenges
        SET used_at = NOW()
        WHERE id = $1 AND used_at IS NULL
        RETURNING id, nonce, expires_at, used_at, created_at
    `
	c, err := scanChallenge(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (r *attestationChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AttestationChallenge, error) {
	q := `
        SELECT id, nonce, expires_at, used_at, created_at
        FROM attestation_challenges
        WHERE id = $1
    `
	c, err := scanChallenge(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanChallenge(row pgx.Row) (*models.AttestationChallenge, error) {
	var c models.AttestationChallenge
	err := row.Scan(&c.ID, &c.Nonce, &c.ExpiresAt, &c.UsedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
