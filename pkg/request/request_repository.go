package request

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type (
	// AcceptOutcome reports the post-write state of an atomic accept.
	AcceptOutcome struct {
		Record        *entities.MatchedDonor
		AcceptedUnits int
		Fulfilled     bool
	}

	BloodRequestRepository interface {
		CreateRequest(ctx context.Context, request *entities.BloodRequest) error
		GetRequestByID(ctx context.Context, id string) (*entities.BloodRequest, error)
		GetActiveRequests(ctx context.Context, page, limit int) ([]*entities.BloodRequest, int64, error)
		GetNearbyRequests(ctx context.Context, lat, lng, radius float64) ([]*entities.BloodRequest, error)
		GetUserRequests(ctx context.Context, userID string, page, limit int) ([]*entities.BloodRequest, int64, error)
		GetDonorResponses(ctx context.Context, donorID string, page, limit int) ([]*entities.MatchedDonor, int64, error)
		AcceptDonor(ctx context.Context, requestID string, donor *entities.User) (*AcceptOutcome, error)
		RecordPendingMatch(ctx context.Context, request *entities.BloodRequest, donor *entities.User) error
		CountAccepted(ctx context.Context, requestID string) (int64, error)
		UpdateRequestStatus(ctx context.Context, id string, status string) error
		CancelRequest(ctx context.Context, id string) error
		ExpireOverdueRequests(ctx context.Context) (int64, error)
	}

	bloodRequestRepository struct {
		db *gorm.DB
	}
)

func NewBloodRequestRepository(db *gorm.DB) BloodRequestRepository {
	return &bloodRequestRepository{db: db}
}

func (r *bloodRequestRepository) CreateRequest(ctx context.Context, request *entities.BloodRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *bloodRequestRepository) GetRequestByID(ctx context.Context, id string) (*entities.BloodRequest, error) {
	var request entities.BloodRequest
	if err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("MatchedDonors").
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *bloodRequestRepository) GetActiveRequests(ctx context.Context, page, limit int) ([]*entities.BloodRequest, int64, error) {
	var requests []*entities.BloodRequest
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.BloodRequest{}).
		Where("status = ? AND deadline > ?", domain.RequestStatusActive, time.Now()).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("MatchedDonors").
		Where("status = ? AND deadline > ?", domain.RequestStatusActive, time.Now()).
		Order("CASE urgency_level WHEN 'critical' THEN 0 WHEN 'urgent' THEN 1 ELSE 2 END, deadline ASC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, count, nil
}

func (r *bloodRequestRepository) GetNearbyRequests(ctx context.Context, lat, lng, radius float64) ([]*entities.BloodRequest, error) {
	var requests []*entities.BloodRequest

	// Uses the earthdistance extension, same as donation location lookups:
	// CREATE EXTENSION IF NOT EXISTS "earthdistance" CASCADE;
	query := `
		SELECT *,
		       earth_distance(ll_to_earth(?, ?), ll_to_earth(hospital_latitude, hospital_longitude)) as distance
		FROM blood_requests
		WHERE status = 'active'
		  AND deadline > NOW()
		  AND earth_box(ll_to_earth(?, ?), ?) @> ll_to_earth(hospital_latitude, hospital_longitude)
		ORDER BY distance ASC
	`

	radiusMeters := radius * 1000

	if err := r.db.WithContext(ctx).Raw(query, lat, lng, lat, lng, radiusMeters).Scan(&requests).Error; err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *bloodRequestRepository) GetUserRequests(ctx context.Context, userID string, page, limit int) ([]*entities.BloodRequest, int64, error) {
	var requests []*entities.BloodRequest
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.BloodRequest{}).
		Where("requester_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("MatchedDonors").
		Where("requester_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, count, nil
}

func (r *bloodRequestRepository) GetDonorResponses(ctx context.Context, donorID string, page, limit int) ([]*entities.MatchedDonor, int64, error) {
	var responses []*entities.MatchedDonor
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.MatchedDonor{}).
		Where("donor_id = ?", donorID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Request").
		Where("donor_id = ?", donorID).
		Order("responded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&responses).Error; err != nil {
		return nil, 0, err
	}

	return responses, count, nil
}

// AcceptDonor appends an accepted donor record, guarded by a row lock on the
// request so two donors racing for the last unit cannot both get in. The
// whole check-and-append runs as one transaction: lock the request, re-check
// status, deadline, duplicate and capacity against the locked row, then
// insert. Capacity exhausted by a competing accept surfaces as
// ErrRequestNoLongerAvailable and is never retried here.
func (r *bloodRequestRepository) AcceptDonor(ctx context.Context, requestID string, donor *entities.User) (*AcceptOutcome, error) {
	outcome := &AcceptOutcome{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request entities.BloodRequest
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", requestID).
			First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRequestNotFound
			}
			return err
		}

		if request.Status != domain.RequestStatusActive {
			return domain.ErrRequestNoLongerAvailable
		}
		if time.Now().After(request.Deadline) {
			return domain.ErrRequestDeadlinePassed
		}

		var existing entities.MatchedDonor
		existingErr := tx.
			Where("request_id = ? AND donor_id = ?", requestID, donor.ID).
			First(&existing).Error
		if existingErr != nil && !errors.Is(existingErr, gorm.ErrRecordNotFound) {
			return existingErr
		}
		// A pending record just means the donor was notified; anything else
		// is a real prior response.
		if existingErr == nil && existing.Status != domain.MatchStatusPending {
			return domain.ErrAlreadyResponded
		}

		var accepted int64
		if err := tx.Model(&entities.MatchedDonor{}).
			Where("request_id = ? AND status = ?", requestID, domain.MatchStatusAccepted).
			Count(&accepted).Error; err != nil {
			return err
		}
		if int(accepted) >= request.RequiredUnits {
			return domain.ErrRequestNoLongerAvailable
		}

		bloodType := ""
		if donor.BloodType != nil {
			bloodType = *donor.BloodType
		}

		var record *entities.MatchedDonor
		if existingErr == nil {
			existing.Status = domain.MatchStatusAccepted
			existing.RespondedAt = time.Now()
			if err := tx.Model(&entities.MatchedDonor{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"status":       existing.Status,
					"responded_at": existing.RespondedAt,
				}).Error; err != nil {
				return err
			}
			record = &existing
		} else {
			record = &entities.MatchedDonor{
				ID:             uuid.New(),
				RequestID:      request.ID,
				DonorID:        donor.ID,
				DonorName:      donor.Name,
				DonorBloodType: bloodType,
				Status:         domain.MatchStatusAccepted,
				RespondedAt:    time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}

		outcome.Record = record
		outcome.AcceptedUnits = int(accepted) + 1
		outcome.Fulfilled = outcome.AcceptedUnits >= request.RequiredUnits

		updates := map[string]interface{}{"fulfilled_units": outcome.AcceptedUnits}
		if outcome.Fulfilled {
			updates["status"] = domain.RequestStatusFulfilled
		}
		return tx.Model(&entities.BloodRequest{}).
			Where("id = ?", requestID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// RecordPendingMatch notes that a donor was notified about a request. The
// unique index on (request_id, donor_id) makes repeated dispatches a no-op.
func (r *bloodRequestRepository) RecordPendingMatch(ctx context.Context, request *entities.BloodRequest, donor *entities.User) error {
	bloodType := ""
	if donor.BloodType != nil {
		bloodType = *donor.BloodType
	}
	now := time.Now()

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}, {Name: "donor_id"}},
			DoNothing: true,
		}).
		Create(&entities.MatchedDonor{
			ID:             uuid.New(),
			RequestID:      request.ID,
			DonorID:        donor.ID,
			DonorName:      donor.Name,
			DonorBloodType: bloodType,
			Status:         domain.MatchStatusPending,
			NotifiedAt:     &now,
		}).Error
}

func (r *bloodRequestRepository) CountAccepted(ctx context.Context, requestID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.MatchedDonor{}).
		Where("request_id = ? AND status = ?", requestID, domain.MatchStatusAccepted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *bloodRequestRepository) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	return r.db.WithContext(ctx).
		Model(&entities.BloodRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CancelRequest only cancels requests that are still active.
func (r *bloodRequestRepository) CancelRequest(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.BloodRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestStatusActive).
		Update("status", domain.RequestStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRequestNotActive
	}
	return nil
}

func (r *bloodRequestRepository) ExpireOverdueRequests(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.BloodRequest{}).
		Where("status = ? AND deadline <= ?", domain.RequestStatusActive, time.Now()).
		Update("status", domain.RequestStatusExpired)
	return result.RowsAffected, result.Error
}
