package request

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/bloodtype"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/chat"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/donation"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/matching"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/notification"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/sms"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/user"
)

type (
	BloodRequestService interface {
		CreateRequest(ctx context.Context, req domain.CreateBloodRequestRequest, requesterID string) (*domain.BloodRequest, *domain.DispatchSummary, error)
		GetRequestByID(ctx context.Context, id string) (*domain.BloodRequest, error)
		GetActiveRequests(ctx context.Context, page, limit int) ([]*domain.BloodRequest, int64, error)
		GetNearbyRequests(ctx context.Context, req domain.GetNearbyRequestsRequest) ([]*domain.BloodRequest, error)
		GetUserRequests(ctx context.Context, userID string, page, limit int) ([]*domain.BloodRequest, int64, error)
		GetDonorResponses(ctx context.Context, donorID string, page, limit int) ([]*domain.MatchedDonorRecord, int64, error)
		RespondToRequest(ctx context.Context, requestID string, donorID string) (*domain.AcceptResult, error)
		CancelRequest(ctx context.Context, requestID string, userID string) error
		ExpireOverdueRequests(ctx context.Context) (int64, error)
	}

	bloodRequestService struct {
		requestRepository BloodRequestRepository
		userRepository    user.UserRepository
		dispatcher        notification.Dispatcher
		chatService       chat.ChatService
		donationService   donation.DonationService
		smsGateway        sms.Gateway
		maxDistanceKm     float64
	}
)

func NewBloodRequestService(
	requestRepository BloodRequestRepository,
	userRepository user.UserRepository,
	dispatcher notification.Dispatcher,
	chatService chat.ChatService,
	donationService donation.DonationService,
	smsGateway sms.Gateway,
	maxDistanceKm float64,
) BloodRequestService {
	return &bloodRequestService{
		requestRepository: requestRepository,
		userRepository:    userRepository,
		dispatcher:        dispatcher,
		chatService:       chatService,
		donationService:   donationService,
		smsGateway:        smsGateway,
		maxDistanceKm:     maxDistanceKm,
	}
}

func (s *bloodRequestService) CreateRequest(ctx context.Context, req domain.CreateBloodRequestRequest, requesterID string) (*domain.BloodRequest, *domain.DispatchSummary, error) {
	if !bloodtype.IsValid(req.PatientBloodType) {
		return nil, nil, domain.ErrInvalidBloodType
	}
	if req.RequiredUnits < 1 {
		return nil, nil, domain.ErrInvalidRequiredUnits
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return nil, nil, err
	}
	if !deadline.After(time.Now()) {
		return nil, nil, domain.ErrDeadlineInPast
	}

	requesterUUID, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, nil, domain.ErrParseUUID
	}

	request := &entities.BloodRequest{
		ID:                uuid.New(),
		RequesterID:       requesterUUID,
		PatientName:       req.PatientName,
		PatientAge:        req.PatientAge,
		PatientBloodType:  req.PatientBloodType,
		PatientCondition:  req.PatientCondition,
		HospitalName:      req.HospitalName,
		HospitalAddress:   req.HospitalAddress,
		HospitalLatitude:  req.HospitalLatitude,
		HospitalLongitude: req.HospitalLongitude,
		HospitalContact:   req.HospitalContact,
		UrgencyLevel:      req.UrgencyLevel,
		RequiredUnits:     req.RequiredUnits,
		Deadline:          deadline,
		Status:            domain.RequestStatusActive,
		ContactName:       req.ContactName,
		ContactPhone:      req.ContactPhone,
	}

	if err := s.requestRepository.CreateRequest(ctx, request); err != nil {
		return nil, nil, err
	}

	summary := s.notifyDonorPool(ctx, request)

	return toDomainRequest(request), summary, nil
}

// notifyDonorPool fans the new request out to compatible available donors.
// Notification failures never fail request creation.
func (s *bloodRequestService) notifyDonorPool(ctx context.Context, request *entities.BloodRequest) *domain.DispatchSummary {
	donors, err := s.userRepository.FindDonors(ctx, user.DonorFilter{
		BloodTypes:    bloodtype.CompatibleDonorTypes(request.PatientBloodType),
		ExcludeID:     request.RequesterID.String(),
		AvailableOnly: true,
	})
	if err != nil {
		log.Printf("donor pool lookup for request %s failed: %v", request.ID, err)
		return &domain.DispatchSummary{}
	}

	summary, err := s.dispatcher.DispatchRequestNotifications(ctx, request, donors, s.maxDistanceKm)
	if err != nil {
		log.Printf("notification dispatch for request %s failed: %v", request.ID, err)
		return &domain.DispatchSummary{}
	}
	return summary
}

func (s *bloodRequestService) RespondToRequest(ctx context.Context, requestID string, donorID string) (*domain.AcceptResult, error) {
	request, err := s.requestRepository.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}

	donor, err := s.userRepository.GetUserByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	// Preconditions, checked before the write so callers get a precise
	// reason. The atomic accept re-checks everything that guards the
	// capacity invariant.
	if request.Status != domain.RequestStatusActive {
		return nil, domain.ErrRequestNotActive
	}
	if time.Now().After(request.Deadline) {
		return nil, domain.ErrRequestDeadlinePassed
	}
	if donor.BloodType == nil || *donor.BloodType == "" {
		return nil, domain.ErrDonorBloodTypeMissing
	}
	if request.RequesterID == donor.ID {
		return nil, domain.ErrSelfResponse
	}
	for _, record := range request.MatchedDonors {
		if record.DonorID == donor.ID && record.Status != domain.MatchStatusPending {
			return nil, domain.ErrAlreadyResponded
		}
	}
	if !bloodtype.CanDonate(*donor.BloodType, request.PatientBloodType) {
		return nil, domain.ErrIncompatibleBloodType
	}
	if donor.AvailableForDonation != nil && !*donor.AvailableForDonation {
		return nil, domain.ErrDonorUnavailable
	}
	if eligibility := matching.EvaluateEligibility(donor, request, s.maxDistanceKm); !eligibility.IsEligible {
		return nil, domain.ErrDonorNotEligible
	}

	accepted, err := s.requestRepository.CountAccepted(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if int(accepted) >= request.RequiredUnits {
		return nil, domain.ErrRequestNoLongerAvailable
	}

	outcome, err := s.requestRepository.AcceptDonor(ctx, requestID, donor)
	if err != nil {
		return nil, err
	}

	result := &domain.AcceptResult{
		RequestID: requestID,
		Donor: &domain.ContactSummary{
			ID:    donor.ID.String(),
			Name:  donor.Name,
			Phone: donor.Phone,
		},
		Requester: &domain.ContactSummary{
			ID:    request.RequesterID.String(),
			Name:  request.ContactName,
			Phone: request.ContactPhone,
		},
		AcceptedUnits: outcome.AcceptedUnits,
		RequiredUnits: request.RequiredUnits,
		Fulfilled:     outcome.Fulfilled,
	}
	if request.Requester != nil {
		result.Requester.Name = request.Requester.Name
	}

	// Everything after the committed accept is best-effort: log and carry on.
	if created, err := s.donationService.CreateForAccept(ctx, request, donor); err != nil {
		log.Printf("donation record for request %s failed: %v", requestID, err)
	} else if created != nil {
		result.DonationID = created.ID
	}

	participants := [2]string{donor.ID.String(), request.RequesterID.String()}
	if channel, err := s.chatService.EnsureChannel(ctx, participants, requestID); err != nil {
		log.Printf("chat channel for request %s failed: %v", requestID, err)
	} else {
		result.ChatChannelID = channel.ID
		text := fmt.Sprintf("%s (%s) has accepted this blood request. You can coordinate the donation here.",
			donor.Name, *donor.BloodType)
		if err := s.chatService.PostSystemMessage(ctx, channel.ID, text); err != nil {
			log.Printf("system message for request %s failed: %v", requestID, err)
		}
	}

	if request.ContactPhone != "" {
		body := fmt.Sprintf("%s (%s) accepted your blood request for %s. Check the app to coordinate.",
			donor.Name, *donor.BloodType, request.PatientName)
		if err := s.smsGateway.Send(ctx, request.ContactPhone, body); err != nil {
			log.Printf("requester sms for request %s failed: %v", requestID, err)
		}
	}

	if outcome.Fulfilled {
		go s.notifyFulfilled(requestID)
	}

	return result, nil
}

// notifyFulfilled thanks the donors still pending on a request once its last
// unit has been accepted. Runs detached from the accept's request context.
func (s *bloodRequestService) notifyFulfilled(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	request, err := s.requestRepository.GetRequestByID(ctx, requestID)
	if err != nil {
		log.Printf("fulfilled notice: reload of request %s failed: %v", requestID, err)
		return
	}

	pendingIDs := make([]string, 0, len(request.MatchedDonors))
	for _, record := range request.MatchedDonors {
		if record.Status == domain.MatchStatusPending {
			pendingIDs = append(pendingIDs, record.DonorID.String())
		}
	}
	if len(pendingIDs) == 0 {
		return
	}

	donors, err := s.userRepository.GetUsersByIDs(ctx, pendingIDs)
	if err != nil {
		log.Printf("fulfilled notice: donor lookup for request %s failed: %v", requestID, err)
		return
	}

	if _, err := s.dispatcher.DispatchFulfilledNotifications(ctx, request, donors); err != nil {
		log.Printf("fulfilled notice for request %s failed: %v", requestID, err)
	}
}

func (s *bloodRequestService) GetRequestByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	request, err := s.requestRepository.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return toDomainRequest(request), nil
}

func (s *bloodRequestService) GetActiveRequests(ctx context.Context, page, limit int) ([]*domain.BloodRequest, int64, error) {
	requests, count, err := s.requestRepository.GetActiveRequests(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.BloodRequest, 0, len(requests))
	for _, request := range requests {
		result = append(result, toDomainRequest(request))
	}
	return result, count, nil
}

func (s *bloodRequestService) GetNearbyRequests(ctx context.Context, req domain.GetNearbyRequestsRequest) ([]*domain.BloodRequest, error) {
	requests, err := s.requestRepository.GetNearbyRequests(ctx, req.Latitude, req.Longitude, req.Radius)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.BloodRequest, 0, len(requests))
	for _, request := range requests {
		mapped := toDomainRequest(request)
		mapped.Distance = matching.Haversine(req.Latitude, req.Longitude, request.HospitalLatitude, request.HospitalLongitude)
		result = append(result, mapped)
	}
	return result, nil
}

func (s *bloodRequestService) GetUserRequests(ctx context.Context, userID string, page, limit int) ([]*domain.BloodRequest, int64, error) {
	requests, count, err := s.requestRepository.GetUserRequests(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.BloodRequest, 0, len(requests))
	for _, request := range requests {
		result = append(result, toDomainRequest(request))
	}
	return result, count, nil
}

func (s *bloodRequestService) GetDonorResponses(ctx context.Context, donorID string, page, limit int) ([]*domain.MatchedDonorRecord, int64, error) {
	responses, count, err := s.requestRepository.GetDonorResponses(ctx, donorID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.MatchedDonorRecord, 0, len(responses))
	for _, record := range responses {
		result = append(result, toDomainMatchedDonor(record))
	}
	return result, count, nil
}

func (s *bloodRequestService) CancelRequest(ctx context.Context, requestID string, userID string) error {
	request, err := s.requestRepository.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRequestNotFound
		}
		return err
	}

	if request.RequesterID.String() != userID {
		return domain.ErrUnauthorizedRequestEdit
	}

	return s.requestRepository.CancelRequest(ctx, requestID)
}

func (s *bloodRequestService) ExpireOverdueRequests(ctx context.Context) (int64, error) {
	return s.requestRepository.ExpireOverdueRequests(ctx)
}

func toDomainRequest(request *entities.BloodRequest) *domain.BloodRequest {
	matchedDonors := make([]*domain.MatchedDonorRecord, 0, len(request.MatchedDonors))
	for _, record := range request.MatchedDonors {
		matchedDonors = append(matchedDonors, toDomainMatchedDonor(record))
	}

	return &domain.BloodRequest{
		ID:                request.ID.String(),
		RequesterID:       request.RequesterID.String(),
		PatientName:       request.PatientName,
		PatientAge:        request.PatientAge,
		PatientBloodType:  request.PatientBloodType,
		PatientCondition:  request.PatientCondition,
		HospitalName:      request.HospitalName,
		HospitalAddress:   request.HospitalAddress,
		HospitalLatitude:  request.HospitalLatitude,
		HospitalLongitude: request.HospitalLongitude,
		HospitalContact:   request.HospitalContact,
		UrgencyLevel:      request.UrgencyLevel,
		RequiredUnits:     request.RequiredUnits,
		FulfilledUnits:    request.FulfilledUnits,
		Deadline:          request.Deadline,
		Status:            request.Status,
		ContactName:       request.ContactName,
		ContactPhone:      request.ContactPhone,
		MatchedDonors:     matchedDonors,
		CreatedAt:         request.CreatedAt,
		UpdatedAt:         request.UpdatedAt,
	}
}

func toDomainMatchedDonor(record *entities.MatchedDonor) *domain.MatchedDonorRecord {
	return &domain.MatchedDonorRecord{
		DonorID:        record.DonorID.String(),
		DonorName:      record.DonorName,
		DonorBloodType: record.DonorBloodType,
		Status:         record.Status,
		RespondedAt:    record.RespondedAt,
	}
}
