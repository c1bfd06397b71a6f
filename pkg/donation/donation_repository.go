package donation

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type (
	DonationRepository interface {
		CreateIfAbsent(ctx context.Context, donation *entities.Donation) (*entities.Donation, error)
		GetDonationByID(ctx context.Context, id string) (*entities.Donation, error)
		GetDonationByRequestID(ctx context.Context, requestID string) (*entities.Donation, error)
		GetUserDonations(ctx context.Context, userID string, page, limit int) ([]*entities.Donation, int64, error)
		SaveDonation(ctx context.Context, donation *entities.Donation) error
		AppendTimelineEntry(ctx context.Context, entry *entities.DonationTimelineEntry) error
		CreateDispute(ctx context.Context, dispute *entities.DonationDispute) error
		GetDisputeByID(ctx context.Context, id string) (*entities.DonationDispute, error)
		UpdateDisputeStatus(ctx context.Context, id string, status string) error
	}

	donationRepository struct {
		db *gorm.DB
	}
)

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

// CreateIfAbsent inserts the donation unless one already exists for the
// request. The unique index on request_id makes concurrent accepts converge
// on a single record; the existing row is returned either way.
func (r *donationRepository) CreateIfAbsent(ctx context.Context, donation *entities.Donation) (*entities.Donation, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(donation).Error; err != nil {
		return nil, err
	}

	return r.GetDonationByRequestID(ctx, donation.RequestID.String())
}

func (r *donationRepository) GetDonationByID(ctx context.Context, id string) (*entities.Donation, error) {
	var donation entities.Donation
	if err := r.db.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC")
		}).
		Preload("Disputes").
		Where("id = ?", id).
		First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *donationRepository) GetDonationByRequestID(ctx context.Context, requestID string) (*entities.Donation, error) {
	var donation entities.Donation
	if err := r.db.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC")
		}).
		Preload("Disputes").
		Where("request_id = ?", requestID).
		First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *donationRepository) GetUserDonations(ctx context.Context, userID string, page, limit int) ([]*entities.Donation, int64, error) {
	var donations []*entities.Donation
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("donor_id = ? OR recipient_id = ?", userID, userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Disputes").
		Where("donor_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&donations).Error; err != nil {
		return nil, 0, err
	}

	return donations, count, nil
}

func (r *donationRepository) SaveDonation(ctx context.Context, donation *entities.Donation) error {
	return r.db.WithContext(ctx).
		Model(&entities.Donation{}).
		Where("id = ?", donation.ID).
		Updates(map[string]interface{}{
			"scheduled_at":            donation.ScheduledAt,
			"donor_arrived":           donation.DonorArrived,
			"donor_arrived_at":        donation.DonorArrivedAt,
			"hospital_received":       donation.HospitalReceived,
			"hospital_received_at":    donation.HospitalReceivedAt,
			"donor_completed":         donation.DonorCompleted,
			"donor_completed_at":      donation.DonorCompletedAt,
			"blood_bank_processed":    donation.BloodBankProcessed,
			"blood_bank_processed_at": donation.BloodBankProcessedAt,
			"recipient_received":      donation.RecipientReceived,
			"recipient_received_at":   donation.RecipientReceivedAt,
			"hospital_receipt_url":    donation.HospitalReceiptURL,
			"staff_signature_url":     donation.StaffSignatureURL,
			"status":                  donation.Status,
			"verification_level":      donation.VerificationLevel,
			"trust_score":             donation.TrustScore,
		}).Error
}

func (r *donationRepository) AppendTimelineEntry(ctx context.Context, entry *entities.DonationTimelineEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *donationRepository) CreateDispute(ctx context.Context, dispute *entities.DonationDispute) error {
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *donationRepository) GetDisputeByID(ctx context.Context, id string) (*entities.DonationDispute, error) {
	var dispute entities.DonationDispute
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *donationRepository) UpdateDisputeStatus(ctx context.Context, id string, status string) error {
	return r.db.WithContext(ctx).
		Model(&entities.DonationDispute{}).
		Where("id = ?", id).
		Update("status", status).Error
}
