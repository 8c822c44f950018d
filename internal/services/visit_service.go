package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verisite/visit-service/internal/dtos"
	"github.com/verisite/visit-service/internal/models"
	"github.com/verisite/visit-service/internal/repositories"
	"github.com/verisite/visit-service/internal/utils"
)

// VisitService runs the attestation pipeline and the visit state
// machine: Absent -> Open (CHECK_IN) -> Closed (CHECK_OUT), with
// vendor-name uniqueness across all visits.
//
// Pipeline order is fixed: field validation, precondition gate,
// challenge consumption, signature verification, lifecycle transition.
// Consuming the challenge before checking the signature means a valid
// challenge paired with a bad signature still burns the challenge;
// that ordering guarantees no challenge is replayable across failed
// signature attempts and must not be reordered.
type VisitService interface {
	SubmitEvent(ctx context.Context, req dtos.SubmitEventRequest) (*dtos.SubmitEventResponse, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*dtos.VisitDTO, error)
	ListVisits(ctx context.Context) ([]*dtos.VisitDTO, error)
	ListAllEvents(ctx context.Context) ([]*models.AttestationEvent, error)
}

type visitService struct {
	visitRepo         repositories.VisitRepository
	photoRepo         repositories.PhotoRepository
	attestation       AttestationService
	maxAccuracyMeters float64
}

func NewVisitService(
	visitRepo repositories.VisitRepository,
	photoRepo repositories.PhotoRepository,
	attestation AttestationService,
	maxAccuracyMeters float64,
) VisitService {
	return &visitService{
		visitRepo:         visitRepo,
		photoRepo:         photoRepo,
		attestation:       attestation,
		maxAccuracyMeters: maxAccuracyMeters,
	}
}

var hexDigestRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// submittedEvent holds the parsed request after field validation.
type submittedEvent struct {
	eventType   models.EventType
	visitID     *uuid.UUID
	accuracy    float64
	photoRef    uuid.UUID
	challengeID uuid.UUID
}

func (s *visitService) SubmitEvent(ctx context.Context, req dtos.SubmitEventRequest) (*dtos.SubmitEventResponse, error) {
	parsed, err := validateEventFields(req)
	if err != nil {
		return nil, err
	}

	// Precondition gate: cheap environmental checks first, so requests
	// doomed for other reasons do not burn a one-use challenge.
	if parsed.accuracy > s.maxAccuracyMeters {
		return nil, utils.ErrLocationInaccurate
	}
	storedDigest, exists, err := s.photoRepo.GetDigest(ctx, parsed.photoRef)
	if err != nil {
		return nil, fmt.Errorf("photo lookup: %w", err)
	}
	if !exists {
		return nil, utils.ErrPhotoNotFound
	}
	if storedDigest != req.PhotoDigest {
		return nil, utils.ErrPhotoDigestMismatch
	}

	if err := s.attestation.ConsumeChallenge(ctx, parsed.challengeID, req.ChallengeNonce); err != nil {
		return nil, err
	}

	payload := CanonicalPayload(CanonicalFields{
		ChallengeNonce: req.ChallengeNonce,
		EventType:      string(parsed.eventType),
		VendorName:     req.VendorName,
		Latitude:       req.Latitude.String(),
		Longitude:      req.Longitude.String(),
		AccuracyMeters: req.AccuracyMeters.String(),
		CapturedAt:     req.CapturedAt,
		PhotoDigest:    req.PhotoDigest,
	})
	if !VerifyEventSignature(req.DevicePublicKey, req.Signature, payload) {
		return nil, utils.ErrSignatureInvalid
	}

	event := &models.AttestationEvent{
		ID:               uuid.New(),
		EventType:        parsed.eventType,
		VendorName:       req.VendorName,
		Latitude:         req.Latitude.String(),
		Longitude:        req.Longitude.String(),
		AccuracyMeters:   req.AccuracyMeters.String(),
		CapturedAt:       req.CapturedAt,
		PhotoRef:         parsed.photoRef,
		PhotoDigest:      req.PhotoDigest,
		DevicePublicKey:  req.DevicePublicKey,
		Signature:        req.Signature,
		ChallengeID:      parsed.challengeID,
		ObserverMetadata: req.ObserverMetadata,
	}

	switch parsed.eventType {
	case models.EventCheckIn:
		return s.beginVisit(ctx, event)
	default:
		return s.endVisit(ctx, *parsed.visitID, event)
	}
}

// beginVisit creates the visit and its CHECK_IN event atomically. The
// pre-check is only a fast user-facing rejection; the unique index on
// LOWER(vendor_name) decides races.
func (s *visitService) beginVisit(ctx context.Context, event *models.AttestationEvent) (*dtos.SubmitEventResponse, error) {
	existing, err := s.visitRepo.GetByVendorName(ctx, event.VendorName)
	if err != nil {
		return nil, fmt.Errorf("vendor lookup: %w", err)
	}
	if existing != nil {
		return nil, utils.ErrDuplicateVendor
	}

	visit := &models.Visit{
		ID:         uuid.New(),
		VendorName: event.VendorName,
	}
	event.VisitID = visit.ID
	if err := s.visitRepo.CreateWithCheckIn(ctx, visit, event); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"visit_id": visit.ID,
		"vendor":   visit.VendorName,
	}).Info("visit opened")
	return &dtos.SubmitEventResponse{VisitID: visit.ID, EventID: event.ID}, nil
}

// endVisit appends the CHECK_OUT under an existing open visit. Reading
// the visit row first guarantees the CHECK_IN is durably visible
// before any CHECK_OUT is accepted; the (visit_id, event_type) unique
// index is the final backstop against a double close.
func (s *visitService) endVisit(ctx context.Context, visitID uuid.UUID, event *models.AttestationEvent) (*dtos.SubmitEventResponse, error) {
	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("visit lookup: %w", err)
	}
	if visit == nil {
		return nil, utils.ErrVisitNotFound
	}
	if visit.State == models.VisitStateClosed {
		return nil, utils.ErrVisitAlreadyClosed
	}
	if !strings.EqualFold(visit.VendorName, event.VendorName) {
		return nil, utils.ErrVendorMismatch
	}

	event.VisitID = visit.ID
	if err := s.visitRepo.InsertCheckOut(ctx, event); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"visit_id": visit.ID,
		"vendor":   visit.VendorName,
	}).Info("visit closed")
	return &dtos.SubmitEventResponse{VisitID: visit.ID, EventID: event.ID}, nil
}

func (s *visitService) GetVisit(ctx context.Context, id uuid.UUID) (*dtos.VisitDTO, error) {
	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if visit == nil {
		return nil, nil
	}
	events, err := s.visitRepo.ListEventsByVisitID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dtos.NewVisitDTO(visit, events), nil
}

func (s *visitService) ListVisits(ctx context.Context) ([]*dtos.VisitDTO, error) {
	visits, err := s.visitRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dtos.VisitDTO, 0, len(visits))
	for _, v := range visits {
		out = append(out, dtos.NewVisitDTO(v, nil))
	}
	return out, nil
}

func (s *visitService) ListAllEvents(ctx context.Context) ([]*models.AttestationEvent, error) {
	return s.visitRepo.ListAllEvents(ctx)
}

func validateEventFields(req dtos.SubmitEventRequest) (*submittedEvent, error) {
	out := &submittedEvent{eventType: models.EventType(req.EventType)}
	if !out.eventType.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", utils.ErrInvalidPayload, req.EventType)
	}

	if out.eventType == models.EventCheckOut {
		if req.VisitID == "" {
			return nil, fmt.Errorf("%w: visit_id is required for CHECK_OUT", utils.ErrInvalidPayload)
		}
		id, err := uuid.Parse(req.VisitID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid visit_id", utils.ErrInvalidPayload)
		}
		out.visitID = &id
	}

	if strings.TrimSpace(req.VendorName) == "" {
		return nil, fmt.Errorf("%w: vendor_name is required", utils.ErrInvalidPayload)
	}

	lat, err := strconv.ParseFloat(req.Latitude.String(), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude out of range", utils.ErrInvalidPayload)
	}
	lng, err := strconv.ParseFloat(req.Longitude.String(), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: longitude out of range", utils.ErrInvalidPayload)
	}
	acc, err := strconv.ParseFloat(req.AccuracyMeters.String(), 64)
	if err != nil || acc < 0 {
		return nil, fmt.Errorf("%w: accuracy_meters must be >= 0", utils.ErrInvalidPayload)
	}
	out.accuracy = acc

	if _, err := time.Parse(time.RFC3339, req.CapturedAt); err != nil {
		return nil, fmt.Errorf("%w: captured_at must be RFC 3339", utils.ErrInvalidPayload)
	}
	if !hexDigestRe.MatchString(req.PhotoDigest) {
		return nil, fmt.Errorf("%w: photo_digest must be 64 lowercase hex chars", utils.ErrInvalidPayload)
	}

	photoRef, err := uuid.Parse(req.PhotoRef)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid photo_ref", utils.ErrInvalidPayload)
	}
	out.photoRef = photoRef

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid challenge_id", utils.ErrInvalidPayload)
	}
	out.challengeID = challengeID

	return out, nil
}
