package donation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils/storage"
)

type (
	DonationService interface {
		CreateForAccept(ctx context.Context, request *entities.BloodRequest, donor *entities.User) (*domain.Donation, error)
		RecordConfirmation(ctx context.Context, req domain.RecordConfirmationRequest, userID string) (*domain.Donation, error)
		ReportDispute(ctx context.Context, req domain.ReportDisputeRequest, userID string) (*domain.Donation, error)
		ResolveDispute(ctx context.Context, disputeID string, status string, failDonation bool) error
		ScheduleDonation(ctx context.Context, donationID string, userID string, at time.Time) (*domain.Donation, error)
		GetDonationByID(ctx context.Context, id string, userID string) (*domain.Donation, error)
		GetDonationByRequest(ctx context.Context, requestID string, userID string) (*domain.Donation, error)
		GetUserDonations(ctx context.Context, userID string, page, limit int) ([]*domain.Donation, int64, error)
		UploadEvidence(ctx context.Context, req domain.UploadEvidenceRequest, userID string) (*domain.Donation, error)
	}

	donationService struct {
		donationRepository DonationRepository
		s3                 storage.AwsS3
	}
)

func NewDonationService(donationRepository DonationRepository, s3 storage.AwsS3) DonationService {
	return &donationService{
		donationRepository: donationRepository,
		s3:                 s3,
	}
}

// CreateForAccept makes the donation record backing an accepted response.
// Idempotent: a request only ever gets one donation, whichever caller gets
// there first wins and later callers see the same record.
func (s *donationService) CreateForAccept(ctx context.Context, request *entities.BloodRequest, donor *entities.User) (*domain.Donation, error) {
	bloodType := ""
	if donor.BloodType != nil {
		bloodType = *donor.BloodType
	}

	donation := &entities.Donation{
		ID:                uuid.New(),
		RequestID:         request.ID,
		DonorID:           donor.ID,
		RecipientID:       request.RequesterID,
		BloodType:         bloodType,
		Status:            domain.DonationStatusInitiated,
		VerificationLevel: domain.VerificationBasic,
		TrustScore:        50,
	}

	created, err := s.donationRepository.CreateIfAbsent(ctx, donation)
	if err != nil {
		return nil, err
	}

	if created.ID == donation.ID {
		entry := &entities.DonationTimelineEntry{
			ID:         uuid.New(),
			DonationID: created.ID,
			Event:      "donation_initiated",
			Actor:      domain.ActorSystem,
			Notes:      fmt.Sprintf("%s accepted the blood request", donor.Name),
			OccurredAt: time.Now(),
		}
		if err := s.donationRepository.AppendTimelineEntry(ctx, entry); err != nil {
			return nil, err
		}
	}

	return toDomainDonation(created), nil
}

func (s *donationService) RecordConfirmation(ctx context.Context, req domain.RecordConfirmationRequest, userID string) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if err := authorizeActor(donation, req.Actor, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	switch req.Confirmation {
	case domain.ConfirmationDonorArrived:
		if donation.DonorArrived {
			return nil, domain.ErrConfirmationAlreadySet
		}
		donation.DonorArrived = true
		donation.DonorArrivedAt = &now
	case domain.ConfirmationHospitalReceived:
		if donation.HospitalReceived {
			return nil, domain.ErrConfirmationAlreadySet
		}
		donation.HospitalReceived = true
		donation.HospitalReceivedAt = &now
	case domain.ConfirmationDonorCompleted:
		if donation.DonorCompleted {
			return nil, domain.ErrConfirmationAlreadySet
		}
		donation.DonorCompleted = true
		donation.DonorCompletedAt = &now
	case domain.ConfirmationBloodBankProcessed:
		if donation.BloodBankProcessed {
			return nil, domain.ErrConfirmationAlreadySet
		}
		donation.BloodBankProcessed = true
		donation.BloodBankProcessedAt = &now
	case domain.ConfirmationRecipientReceived:
		if donation.RecipientReceived {
			return nil, domain.ErrConfirmationAlreadySet
		}
		donation.RecipientReceived = true
		donation.RecipientReceivedAt = &now
	default:
		return nil, domain.ErrUnknownConfirmation
	}

	Recompute(donation)

	if err := s.donationRepository.SaveDonation(ctx, donation); err != nil {
		return nil, err
	}

	entry := &entities.DonationTimelineEntry{
		ID:          uuid.New(),
		DonationID:  donation.ID,
		Event:       req.Confirmation,
		Actor:       req.Actor,
		Notes:       req.Notes,
		EvidenceURL: req.EvidenceURL,
		OccurredAt:  now,
	}
	if err := s.donationRepository.AppendTimelineEntry(ctx, entry); err != nil {
		return nil, err
	}
	donation.Timeline = append(donation.Timeline, entry)

	return toDomainDonation(donation), nil
}

func (s *donationService) ReportDispute(ctx context.Context, req domain.ReportDisputeRequest, userID string) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if donation.DonorID.String() != userID && donation.RecipientID.String() != userID {
		return nil, domain.ErrUnauthorizedDonationAccess
	}

	reporterUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	dispute := &entities.DonationDispute{
		ID:         uuid.New(),
		DonationID: donation.ID,
		ReportedBy: reporterUUID,
		Reason:     req.Reason,
		Status:     domain.DisputeStatusOpen,
	}
	if err := s.donationRepository.CreateDispute(ctx, dispute); err != nil {
		return nil, err
	}
	donation.Disputes = append(donation.Disputes, dispute)

	actor := domain.ActorRecipient
	if donation.DonorID.String() == userID {
		actor = domain.ActorDonor
	}
	entry := &entities.DonationTimelineEntry{
		ID:         uuid.New(),
		DonationID: donation.ID,
		Event:      "dispute_reported",
		Actor:      actor,
		Notes:      req.Reason,
		OccurredAt: time.Now(),
	}
	if err := s.donationRepository.AppendTimelineEntry(ctx, entry); err != nil {
		return nil, err
	}
	donation.Timeline = append(donation.Timeline, entry)

	return toDomainDonation(donation), nil
}

func (s *donationService) ResolveDispute(ctx context.Context, disputeID string, status string, failDonation bool) error {
	dispute, err := s.donationRepository.GetDisputeByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrDonationNotFound
		}
		return err
	}

	if err := s.donationRepository.UpdateDisputeStatus(ctx, disputeID, status); err != nil {
		return err
	}

	donation, err := s.donationRepository.GetDonationByID(ctx, dispute.DonationID.String())
	if err != nil {
		return err
	}

	if failDonation {
		donation.Status = domain.DonationStatusFailed
	}
	Recompute(donation)
	if err := s.donationRepository.SaveDonation(ctx, donation); err != nil {
		return err
	}

	entry := &entities.DonationTimelineEntry{
		ID:         uuid.New(),
		DonationID: donation.ID,
		Event:      "dispute_" + status,
		Actor:      domain.ActorSystem,
		OccurredAt: time.Now(),
	}
	return s.donationRepository.AppendTimelineEntry(ctx, entry)
}

func (s *donationService) ScheduleDonation(ctx context.Context, donationID string, userID string, at time.Time) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if donation.DonorID.String() != userID && donation.RecipientID.String() != userID {
		return nil, domain.ErrUnauthorizedDonationAccess
	}

	donation.ScheduledAt = &at
	Recompute(donation)
	if err := s.donationRepository.SaveDonation(ctx, donation); err != nil {
		return nil, err
	}

	entry := &entities.DonationTimelineEntry{
		ID:         uuid.New(),
		DonationID: donation.ID,
		Event:      "donation_scheduled",
		Actor:      actorFor(donation, userID),
		Notes:      fmt.Sprintf("scheduled for %s", at.Format(time.RFC3339)),
		OccurredAt: time.Now(),
	}
	if err := s.donationRepository.AppendTimelineEntry(ctx, entry); err != nil {
		return nil, err
	}
	donation.Timeline = append(donation.Timeline, entry)

	return toDomainDonation(donation), nil
}

func (s *donationService) GetDonationByID(ctx context.Context, id string, userID string) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if donation.DonorID.String() != userID && donation.RecipientID.String() != userID {
		return nil, domain.ErrUnauthorizedDonationAccess
	}

	return toDomainDonation(donation), nil
}

func (s *donationService) GetDonationByRequest(ctx context.Context, requestID string, userID string) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if donation.DonorID.String() != userID && donation.RecipientID.String() != userID {
		return nil, domain.ErrUnauthorizedDonationAccess
	}

	return toDomainDonation(donation), nil
}

func (s *donationService) GetUserDonations(ctx context.Context, userID string, page, limit int) ([]*domain.Donation, int64, error) {
	donations, count, err := s.donationRepository.GetUserDonations(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.Donation, 0, len(donations))
	for _, donation := range donations {
		result = append(result, toDomainDonation(donation))
	}
	return result, count, nil
}

func (s *donationService) UploadEvidence(ctx context.Context, req domain.UploadEvidenceRequest, userID string) (*domain.Donation, error) {
	donation, err := s.donationRepository.GetDonationByID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}

	if donation.DonorID.String() != userID && donation.RecipientID.String() != userID {
		return nil, domain.ErrUnauthorizedDonationAccess
	}

	objectKey, err := s.s3.UploadFile(
		fmt.Sprintf("donation-%s-%s", donation.ID.String(), req.Kind),
		req.File,
		"donation-evidence",
		storage.AllowImage...,
	)
	if err != nil {
		return nil, err
	}
	evidenceURL := s.s3.GetPublicLinkKey(objectKey)

	switch req.Kind {
	case domain.EvidenceHospitalReceipt:
		donation.HospitalReceiptURL = evidenceURL
	case domain.EvidenceStaffSignature:
		donation.StaffSignatureURL = evidenceURL
	default:
		return nil, domain.ErrUnknownEvidenceKind
	}

	Recompute(donation)
	if err := s.donationRepository.SaveDonation(ctx, donation); err != nil {
		return nil, err
	}

	entry := &entities.DonationTimelineEntry{
		ID:          uuid.New(),
		DonationID:  donation.ID,
		Event:       "evidence_uploaded",
		Actor:       actorFor(donation, userID),
		Notes:       req.Kind,
		EvidenceURL: evidenceURL,
		OccurredAt:  time.Now(),
	}
	if err := s.donationRepository.AppendTimelineEntry(ctx, entry); err != nil {
		return nil, err
	}
	donation.Timeline = append(donation.Timeline, entry)

	return toDomainDonation(donation), nil
}

// authorizeActor checks that the acting user may speak for the claimed
// party. Hospital and system actors are gated by role at the route level.
func authorizeActor(donation *entities.Donation, actor string, userID string) error {
	switch actor {
	case domain.ActorDonor:
		if donation.DonorID.String() != userID {
			return domain.ErrUnauthorizedDonationAccess
		}
	case domain.ActorRecipient:
		if donation.RecipientID.String() != userID {
			return domain.ErrUnauthorizedDonationAccess
		}
	case domain.ActorHospital, domain.ActorSystem:
		// no identity binding
	default:
		return domain.ErrUnknownActor
	}
	return nil
}

func actorFor(donation *entities.Donation, userID string) string {
	if donation.DonorID.String() == userID {
		return domain.ActorDonor
	}
	if donation.RecipientID.String() == userID {
		return domain.ActorRecipient
	}
	return domain.ActorSystem
}

func toDomainDonation(donation *entities.Donation) *domain.Donation {
	timeline := make([]*domain.TimelineEntry, 0, len(donation.Timeline))
	for _, entry := range donation.Timeline {
		timeline = append(timeline, &domain.TimelineEntry{
			Event:       entry.Event,
			Actor:       entry.Actor,
			Notes:       entry.Notes,
			EvidenceURL: entry.EvidenceURL,
			OccurredAt:  entry.OccurredAt,
		})
	}

	disputes := make([]*domain.DisputeReport, 0, len(donation.Disputes))
	for _, dispute := range donation.Disputes {
		disputes = append(disputes, &domain.DisputeReport{
			ID:         dispute.ID.String(),
			ReportedBy: dispute.ReportedBy.String(),
			Reason:     dispute.Reason,
			Status:     dispute.Status,
			CreatedAt:  dispute.CreatedAt,
		})
	}

	return &domain.Donation{
		ID:                 donation.ID.String(),
		RequestID:          donation.RequestID.String(),
		DonorID:            donation.DonorID.String(),
		RecipientID:        donation.RecipientID.String(),
		BloodType:          donation.BloodType,
		ScheduledAt:        donation.ScheduledAt,
		DonorArrived:       domain.Confirmation{Confirmed: donation.DonorArrived, ConfirmedAt: donation.DonorArrivedAt},
		HospitalReceived:   domain.Confirmation{Confirmed: donation.HospitalReceived, ConfirmedAt: donation.HospitalReceivedAt},
		DonorCompleted:     domain.Confirmation{Confirmed: donation.DonorCompleted, ConfirmedAt: donation.DonorCompletedAt},
		BloodBankProcessed: domain.Confirmation{Confirmed: donation.BloodBankProcessed, ConfirmedAt: donation.BloodBankProcessedAt},
		RecipientReceived:  domain.Confirmation{Confirmed: donation.RecipientReceived, ConfirmedAt: donation.RecipientReceivedAt},
		HospitalReceiptURL: donation.HospitalReceiptURL,
		StaffSignatureURL:  donation.StaffSignatureURL,
		Status:             donation.Status,
		VerificationLevel:  donation.VerificationLevel,
		TrustScore:         donation.TrustScore,
		HasOpenDispute:     HasOpenDispute(donation),
		Timeline:           timeline,
		Disputes:           disputes,
		CreatedAt:          donation.CreatedAt,
		UpdatedAt:          donation.UpdatedAt,
	}
}
