package services

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verisite/visit-service/internal/models"
	"github.com/verisite/visit-service/internal/repositories"
	"github.com/verisite/visit-service/internal/utils"
)

const nonceBytes = 16 // 128 bits of entropy

// AttestationService issues single-use challenges and verifies the
// cryptographic binding of submitted events: the anti-replay nonce and
// the device signature over the canonical payload.
type AttestationService interface {
	// IssueChallenge mints and persists an unused challenge.
	IssueChallenge(ctx context.Context) (*models.AttestationChallenge, error)
	// ConsumeChallenge atomically spends the challenge. Exactly one
	// caller can succeed per challenge id; everyone else gets one of
	// the sentinel rejections, checked in precedence order:
	// ErrChallengeNotFound, ErrChallengeAlreadyUsed,
	// ErrChallengeExpired, ErrChallengeNonceMismatch.
	// A challenge that fails the expiry or nonce check is still spent.
	ConsumeChallenge(ctx context.Context, challengeID uuid.UUID, presentedNonce string) error
}

type attestationService struct {
	challengeRepo repositories.AttestationChallengeRepository
	ttl           time.Duration
}

func NewAttestationService(challengeRepo repositories.AttestationChallengeRepository, ttl time.Duration) AttestationService {
	return &attestationService{challengeRepo: challengeRepo, ttl: ttl}
}

func (s *attestationService) IssueChallenge(ctx context.Context) (*models.AttestationChallenge, error) {
	nonce, err := utils.RandomHex(nonceBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random nonce: %w", err)
	}

	c := &models.AttestationChallenge{
		ID:        uuid.New(),
		Nonce:     nonce,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.challengeRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return c, nil
}

func (s *attestationService) ConsumeChallenge(ctx context.Context, challengeID uuid.UUID, presentedNonce string) error {
	c, claimed, err := s.challengeRepo.Claim(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("claiming challenge: %w", err)
	}
	if !claimed {
		existing, err := s.challengeRepo.GetByID(ctx, challengeID)
		if err != nil {
			return fmt.Errorf("looking up challenge: %w", err)
		}
		if existing == nil {
			return utils.ErrChallengeNotFound
		}
		return utils.ErrChallengeAlreadyUsed
	}

	// The claim committed, so the challenge is spent from here on even
	// if one of the remaining checks rejects the request.
	if c.Expired(time.Now()) {
		return utils.ErrChallengeExpired
	}
	if subtle.ConstantTimeCompare([]byte(c.Nonce), []byte(presentedNonce)) != 1 {
		return utils.ErrChallengeNonceMismatch
	}
	return nil
}

// CanonicalFields are the attestation fields in the exact textual form
// the client submitted them. Numeric fields are decimal strings and
// CapturedAt is the raw RFC 3339 string; nothing here may be
// re-rendered, or client and server payloads desynchronize.
type CanonicalFields struct {
	ChallengeNonce string
	EventType      string
	VendorName     string
	Latitude       string
	Longitude      string
	AccuracyMeters string
	CapturedAt     string
	PhotoDigest    string
}

// canonicalDelimiter joins the fields; it is an ASCII character not
// expected in any of them. Changing the delimiter or the field order
// is a protocol-breaking change.
const canonicalDelimiter = "|"

// CanonicalPayload builds the exact byte string the device signs.
func CanonicalPayload(f CanonicalFields) []byte {
	return []byte(strings.Join([]string{
		f.ChallengeNonce,
		f.EventType,
		f.VendorName,
		f.Latitude,
		f.Longitude,
		f.AccuracyMeters,
		f.CapturedAt,
		f.PhotoDigest,
	}, canonicalDelimiter))
}

// VerifyEventSignature checks an RSA PKCS#1 v1.5 / SHA-256 signature
// over payload. publicKeyB64 is a base64 DER SubjectPublicKeyInfo and
// signatureB64 a base64 raw signature; both accept standard or
// URL-safe alphabets with or without padding. Any parse failure is a
// verification failure, never a panic.
func VerifyEventSignature(publicKeyB64, signatureB64 string, payload []byte) bool {
	pubDER, err := decodeFlexB64(publicKeyB64)
	if err != nil {
		return false
	}
	sig, err := decodeFlexB64(signatureB64)
	if err != nil {
		return false
	}

	pubAny, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return false
	}
	rsaPub, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(rsaPub, crypto.SHA256, digest[:], sig) == nil
}

// decodeFlexB64 handles URL-safe base64 with or without padding.
func decodeFlexB64(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return base64.StdEncoding.DecodeString(s)
}
