package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/user"
)

// fakeRequestRepository keeps requests and matched donor records in memory.
// AcceptDonor runs its whole check-and-append under one lock, mirroring the
// row-locked transaction of the real repository.
type fakeRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*entities.BloodRequest
	matches  map[string][]*entities.MatchedDonor
}

func newFakeRequestRepository() *fakeRequestRepository {
	return &fakeRequestRepository{
		requests: make(map[string]*entities.BloodRequest),
		matches:  make(map[string][]*entities.MatchedDonor),
	}
}

func (f *fakeRequestRepository) CreateRequest(_ context.Context, request *entities.BloodRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *request
	f.requests[request.ID.String()] = &copied
	return nil
}

func (f *fakeRequestRepository) GetRequestByID(_ context.Context, id string) (*entities.BloodRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	copied.MatchedDonors = append([]*entities.MatchedDonor(nil), f.matches[id]...)
	return &copied, nil
}

func (f *fakeRequestRepository) GetActiveRequests(_ context.Context, _, _ int) ([]*entities.BloodRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.BloodRequest
	for _, request := range f.requests {
		if request.Status == domain.RequestStatusActive {
			copied := *request
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRequestRepository) GetNearbyRequests(_ context.Context, _, _, _ float64) ([]*entities.BloodRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepository) GetUserRequests(_ context.Context, userID string, _, _ int) ([]*entities.BloodRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.BloodRequest
	for _, request := range f.requests {
		if request.RequesterID.String() == userID {
			copied := *request
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRequestRepository) GetDonorResponses(_ context.Context, donorID string, _, _ int) ([]*entities.MatchedDonor, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.MatchedDonor
	for _, records := range f.matches {
		for _, record := range records {
			if record.DonorID.String() == donorID {
				result = append(result, record)
			}
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeRequestRepository) AcceptDonor(_ context.Context, requestID string, donor *entities.User) (*AcceptOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	request, ok := f.requests[requestID]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if request.Status != domain.RequestStatusActive {
		return nil, domain.ErrRequestNoLongerAvailable
	}
	if time.Now().After(request.Deadline) {
		return nil, domain.ErrRequestDeadlinePassed
	}

	var pending *entities.MatchedDonor
	accepted := 0
	for _, record := range f.matches[requestID] {
		if record.DonorID == donor.ID {
			if record.Status != domain.MatchStatusPending {
				return nil, domain.ErrAlreadyResponded
			}
			pending = record
		}
		if record.Status == domain.MatchStatusAccepted {
			accepted++
		}
	}
	if accepted >= request.RequiredUnits {
		return nil, domain.ErrRequestNoLongerAvailable
	}

	bloodType := ""
	if donor.BloodType != nil {
		bloodType = *donor.BloodType
	}
	record := pending
	if record == nil {
		record = &entities.MatchedDonor{
			ID:             uuid.New(),
			RequestID:      request.ID,
			DonorID:        donor.ID,
			DonorName:      donor.Name,
			DonorBloodType: bloodType,
		}
		f.matches[requestID] = append(f.matches[requestID], record)
	}
	record.Status = domain.MatchStatusAccepted
	record.RespondedAt = time.Now()

	accepted++
	request.FulfilledUnits = accepted
	fulfilled := accepted >= request.RequiredUnits
	if fulfilled {
		request.Status = domain.RequestStatusFulfilled
	}

	return &AcceptOutcome{
		Record:        record,
		AcceptedUnits: accepted,
		Fulfilled:     fulfilled,
	}, nil
}

func (f *fakeRequestRepository) RecordPendingMatch(_ context.Context, request *entities.BloodRequest, donor *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := request.ID.String()
	for _, record := range f.matches[id] {
		if record.DonorID == donor.ID {
			return nil
		}
	}
	now := time.Now()
	f.matches[id] = append(f.matches[id], &entities.MatchedDonor{
		ID:         uuid.New(),
		RequestID:  request.ID,
		DonorID:    donor.ID,
		DonorName:  donor.Name,
		Status:     domain.MatchStatusPending,
		NotifiedAt: &now,
	})
	return nil
}

func (f *fakeRequestRepository) CountAccepted(_ context.Context, requestID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, record := range f.matches[requestID] {
		if record.Status == domain.MatchStatusAccepted {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestRepository) UpdateRequestStatus(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	request.Status = status
	return nil
}

func (f *fakeRequestRepository) CancelRequest(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok || request.Status != domain.RequestStatusActive {
		return domain.ErrRequestNotActive
	}
	request.Status = domain.RequestStatusCancelled
	return nil
}

func (f *fakeRequestRepository) ExpireOverdueRequests(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired int64
	now := time.Now()
	for _, request := range f.requests {
		if request.Status == domain.RequestStatusActive && !request.Deadline.After(now) {
			request.Status = domain.RequestStatusExpired
			expired++
		}
	}
	return expired, nil
}

type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*entities.User)}
}

func (f *fakeUserRepository) add(u *entities.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID.String()] = u
}

func (f *fakeUserRepository) CreateUser(_ context.Context, u *entities.User) error {
	f.add(u)
	return nil
}

func (f *fakeUserRepository) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetUsersByIDs(_ context.Context, ids []string) ([]*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			copied := *u
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeUserRepository) UpdateUser(_ context.Context, u *entities.User) error {
	f.add(u)
	return nil
}

func (f *fakeUserRepository) FindDonors(_ context.Context, filter user.DonorFilter) ([]*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	allowed := make(map[string]bool, len(filter.BloodTypes))
	for _, bt := range filter.BloodTypes {
		allowed[bt] = true
	}
	var result []*entities.User
	for _, u := range f.users {
		if !u.IsDonor || u.BloodType == nil || !allowed[*u.BloodType] {
			continue
		}
		if u.ID.String() == filter.ExcludeID {
			continue
		}
		copied := *u
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeUserRepository) CheckEmailExist(_ context.Context, email string) bool {
	_, err := f.GetUserByEmail(context.Background(), email)
	return err == nil
}

type fakeDispatcher struct {
	mu            sync.Mutex
	requestCalls  int
	fulfilledDone chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{fulfilledDone: make(chan struct{}, 4)}
}

func (f *fakeDispatcher) DispatchRequestNotifications(_ context.Context, _ *entities.BloodRequest, donors []*entities.User, _ float64) (*domain.DispatchSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	return &domain.DispatchSummary{
		TotalPotentialDonors: len(donors),
		EligibleDonors:       len(donors),
		NotificationsSent:    len(donors),
	}, nil
}

func (f *fakeDispatcher) DispatchFulfilledNotifications(_ context.Context, _ *entities.BloodRequest, donors []*entities.User) (*domain.DispatchSummary, error) {
	f.fulfilledDone <- struct{}{}
	return &domain.DispatchSummary{NotificationsSent: len(donors)}, nil
}

type fakeChatService struct {
	mu       sync.Mutex
	channels map[string]string
	messages []string
}

func newFakeChatService() *fakeChatService {
	return &fakeChatService{channels: make(map[string]string)}
}

func (f *fakeChatService) EnsureChannel(_ context.Context, participantIDs [2]string, requestID string) (*domain.ChatChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := participantIDs[0] + "_" + participantIDs[1] + "_" + requestID
	id, ok := f.channels[key]
	if !ok {
		id = uuid.New().String()
		f.channels[key] = id
	}
	return &domain.ChatChannel{
		ID:             id,
		RequestID:      requestID,
		ParticipantAID: participantIDs[0],
		ParticipantBID: participantIDs[1],
	}, nil
}

func (f *fakeChatService) PostSystemMessage(_ context.Context, channelID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, channelID+": "+text)
	return nil
}

func (f *fakeChatService) SendMessage(_ context.Context, _ domain.SendMessageRequest, _ string) (*domain.ChatMessage, error) {
	return nil, nil
}

func (f *fakeChatService) GetUserChannels(_ context.Context, _ string) ([]*domain.ChatChannel, error) {
	return nil, nil
}

func (f *fakeChatService) GetChannelMessages(_ context.Context, _ string, _ string, _, _ int) ([]*domain.ChatMessage, int64, error) {
	return nil, 0, nil
}

type fakeDonationService struct {
	mu      sync.Mutex
	created map[string]string // request id -> donation id
}

func newFakeDonationService() *fakeDonationService {
	return &fakeDonationService{created: make(map[string]string)}
}

func (f *fakeDonationService) CreateForAccept(_ context.Context, request *entities.BloodRequest, donor *entities.User) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.created[request.ID.String()]
	if !ok {
		id = uuid.New().String()
		f.created[request.ID.String()] = id
	}
	return &domain.Donation{
		ID:        id,
		RequestID: request.ID.String(),
		DonorID:   donor.ID.String(),
	}, nil
}

func (f *fakeDonationService) RecordConfirmation(_ context.Context, _ domain.RecordConfirmationRequest, _ string) (*domain.Donation, error) {
	return nil, nil
}

func (f *fakeDonationService) ReportDispute(_ context.Context, _ domain.ReportDisputeRequest, _ string) (*domain.Donation, error) {
	return nil, nil
}

func (f *fakeDonationService) ResolveDispute(_ context.Context, _ string, _ string, _ bool) error {
	return nil
}

func (f *fakeDonationService) ScheduleDonation(_ context.Context, _ string, _ string, _ time.Time) (*domain.Donation, error) {
	return nil, nil
}

func (f *fakeDonationService) GetDonationByID(_ context.Context, _ string, _ string) (*domain.Donation, error) {
	return nil, nil
}

func (f *fakeDonationService) GetDonationByRequest(_ context.Context, _ string, _ string) (*domain.Donation, error) {
	return nil, nil
}

func (f *fakeDonationService) GetUserDonations(_ context.Context, _ string, _, _ int) ([]*domain.Donation, int64, error) {
	return nil, 0, nil
}

func (f *fakeDonationService) UploadEvidence(_ context.Context, _ domain.UploadEvidenceRequest, _ string) (*domain.Donation, error) {
	return nil, nil
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeGateway) Send(_ context.Context, toPhone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, toPhone+": "+body)
	return nil
}

type testEnv struct {
	service     BloodRequestService
	requestRepo *fakeRequestRepository
	userRepo    *fakeUserRepository
	dispatcher  *fakeDispatcher
	chat        *fakeChatService
	donations   *fakeDonationService
	gateway     *fakeGateway
}

func newTestEnv() *testEnv {
	env := &testEnv{
		requestRepo: newFakeRequestRepository(),
		userRepo:    newFakeUserRepository(),
		dispatcher:  newFakeDispatcher(),
		chat:        newFakeChatService(),
		donations:   newFakeDonationService(),
		gateway:     &fakeGateway{},
	}
	env.service = NewBloodRequestService(
		env.requestRepo, env.userRepo, env.dispatcher, env.chat, env.donations, env.gateway, 0,
	)
	return env
}

func strPtr(s string) *string { return &s }

func (env *testEnv) seedDonor(name, bloodType string) *entities.User {
	u := &entities.User{
		ID:        uuid.New(),
		Name:      name,
		Phone:     "+22210000000",
		BloodType: strPtr(bloodType),
		IsDonor:   true,
	}
	env.userRepo.add(u)
	return u
}

func (env *testEnv) seedRequest(bloodType string, units int) *entities.BloodRequest {
	requester := &entities.User{ID: uuid.New(), Name: "Requester"}
	env.userRepo.add(requester)

	request := &entities.BloodRequest{
		ID:               uuid.New(),
		RequesterID:      requester.ID,
		PatientName:      "Patient",
		PatientBloodType: bloodType,
		HospitalName:     "Central Hospital",
		UrgencyLevel:     domain.UrgencyUrgent,
		RequiredUnits:    units,
		Deadline:         time.Now().Add(24 * time.Hour),
		Status:           domain.RequestStatusActive,
		ContactName:      "Contact",
		ContactPhone:     "+22233333333",
	}
	env.requestRepo.requests[request.ID.String()] = request
	return request
}

func TestCreateRequest_DispatchesNotifications(t *testing.T) {
	env := newTestEnv()
	requester := &entities.User{ID: uuid.New(), Name: "Requester"}
	env.userRepo.add(requester)
	env.seedDonor("D1", "O-")
	env.seedDonor("D2", "A+")

	created, summary, err := env.service.CreateRequest(context.Background(), domain.CreateBloodRequestRequest{
		PatientName:      "Patient",
		PatientAge:       34,
		PatientBloodType: "A+",
		HospitalName:     "Central Hospital",
		HospitalAddress:  "Avenue Nasser",
		UrgencyLevel:     domain.UrgencyCritical,
		RequiredUnits:    2,
		Deadline:         time.Now().Add(12 * time.Hour).Format(time.RFC3339),
		ContactName:      "Contact",
		ContactPhone:     "+22233333333",
	}, requester.ID.String())

	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusActive, created.Status)
	assert.Equal(t, 1, env.dispatcher.requestCalls)
	// both O- and A+ donors can give to an A+ patient
	assert.Equal(t, 2, summary.TotalPotentialDonors)
}

func TestCreateRequest_Validation(t *testing.T) {
	env := newTestEnv()
	requesterID := uuid.New().String()

	_, _, err := env.service.CreateRequest(context.Background(), domain.CreateBloodRequestRequest{
		PatientBloodType: "C+",
		RequiredUnits:    1,
		Deadline:         time.Now().Add(time.Hour).Format(time.RFC3339),
	}, requesterID)
	assert.ErrorIs(t, err, domain.ErrInvalidBloodType)

	_, _, err = env.service.CreateRequest(context.Background(), domain.CreateBloodRequestRequest{
		PatientBloodType: "A+",
		RequiredUnits:    0,
		Deadline:         time.Now().Add(time.Hour).Format(time.RFC3339),
	}, requesterID)
	assert.ErrorIs(t, err, domain.ErrInvalidRequiredUnits)

	_, _, err = env.service.CreateRequest(context.Background(), domain.CreateBloodRequestRequest{
		PatientBloodType: "A+",
		RequiredUnits:    1,
		Deadline:         time.Now().Add(-time.Hour).Format(time.RFC3339),
	}, requesterID)
	assert.ErrorIs(t, err, domain.ErrDeadlineInPast)
}

func TestRespondToRequest_TwoUnitsThreeDonors(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 2)
	d1 := env.seedDonor("D1", "A-")
	d2 := env.seedDonor("D2", "O-")
	d3 := env.seedDonor("D3", "B+") // incompatible

	var wg sync.WaitGroup
	results := make(map[string]error)
	var mu sync.Mutex
	for _, donor := range []*entities.User{d1, d2, d3} {
		wg.Add(1)
		go func(donor *entities.User) {
			defer wg.Done()
			_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
			mu.Lock()
			results[donor.Name] = err
			mu.Unlock()
		}(donor)
	}
	wg.Wait()

	assert.NoError(t, results["D1"])
	assert.NoError(t, results["D2"])
	assert.ErrorIs(t, results["D3"], domain.ErrIncompatibleBloodType)

	stored, err := env.requestRepo.GetRequestByID(context.Background(), request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusFulfilled, stored.Status)
	assert.Equal(t, 2, stored.FulfilledUnits)
}

func TestRespondToRequest_LastUnitRace(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)
	d1 := env.seedDonor("D1", "O-")
	d2 := env.seedDonor("D2", "A+")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, donor := range []*entities.User{d1, d2} {
		wg.Add(1)
		go func(i int, donor *entities.User) {
			defer wg.Done()
			_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
			errs[i] = err
		}(i, donor)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// the loser sees the request as gone, either before or inside the accept
		conflict := errors.Is(err, domain.ErrRequestNoLongerAvailable) ||
			errors.Is(err, domain.ErrRequestNotActive)
		assert.True(t, conflict, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	accepted, err := env.requestRepo.CountAccepted(context.Background(), request.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, accepted)
}

func TestRespondToRequest_DuplicateResponse(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 3)
	donor := env.seedDonor("D1", "O-")

	_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
	require.NoError(t, err)

	_, err = env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)
}

func TestRespondToRequest_ExpiredDeadline(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)
	request.Deadline = time.Now().Add(-time.Minute)
	donor := env.seedDonor("D1", "O-")

	_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrRequestDeadlinePassed)
}

func TestRespondToRequest_PreconditionErrors(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)

	t.Run("unknown request", func(t *testing.T) {
		donor := env.seedDonor("D", "O-")
		_, err := env.service.RespondToRequest(context.Background(), uuid.New().String(), donor.ID.String())
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})

	t.Run("self response", func(t *testing.T) {
		requester, err := env.userRepo.GetUserByID(context.Background(), request.RequesterID.String())
		require.NoError(t, err)
		requester.BloodType = strPtr("O-")
		requester.IsDonor = true
		env.userRepo.add(requester)

		_, err = env.service.RespondToRequest(context.Background(), request.ID.String(), requester.ID.String())
		assert.ErrorIs(t, err, domain.ErrSelfResponse)
	})

	t.Run("missing blood type", func(t *testing.T) {
		donor := env.seedDonor("NoType", "O-")
		donor.BloodType = nil
		env.userRepo.add(donor)

		_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
		assert.ErrorIs(t, err, domain.ErrDonorBloodTypeMissing)
	})

	t.Run("unavailable donor", func(t *testing.T) {
		donor := env.seedDonor("Unavailable", "O-")
		unavailable := false
		donor.AvailableForDonation = &unavailable
		env.userRepo.add(donor)

		_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
		assert.ErrorIs(t, err, domain.ErrDonorUnavailable)
	})
}

func TestRespondToRequest_SideEffects(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 2)
	donor := env.seedDonor("Mariem", "O-")

	result, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, result.AcceptedUnits)
	assert.Equal(t, 2, result.RequiredUnits)
	assert.False(t, result.Fulfilled)
	assert.NotEmpty(t, result.DonationID)
	assert.NotEmpty(t, result.ChatChannelID)
	assert.Equal(t, donor.ID.String(), result.Donor.ID)
	assert.Equal(t, request.RequesterID.String(), result.Requester.ID)

	// system message lands in the channel, sms reaches the contact phone
	require.Len(t, env.chat.messages, 1)
	assert.Contains(t, env.chat.messages[0], "Mariem")
	require.Len(t, env.gateway.sent, 1)
	assert.Contains(t, env.gateway.sent[0], request.ContactPhone)
}

func TestRespondToRequest_PendingMatchCanAccept(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)
	donor := env.seedDonor("Notified", "O-")

	err := env.requestRepo.RecordPendingMatch(context.Background(), request, donor)
	require.NoError(t, err)

	result, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Fulfilled)

	stored, err := env.requestRepo.GetRequestByID(context.Background(), request.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.MatchedDonors, 1)
	assert.Equal(t, domain.MatchStatusAccepted, stored.MatchedDonors[0].Status)
}

func TestRespondToRequest_FulfilledNotifiesPendingDonors(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)
	accepting := env.seedDonor("Accepting", "O-")
	pending := env.seedDonor("Pending", "A-")

	err := env.requestRepo.RecordPendingMatch(context.Background(), request, pending)
	require.NoError(t, err)

	result, err := env.service.RespondToRequest(context.Background(), request.ID.String(), accepting.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Fulfilled)

	select {
	case <-env.dispatcher.fulfilledDone:
	case <-time.After(2 * time.Second):
		t.Fatal("fulfilled notification was never dispatched")
	}
}

func TestRespondToRequest_CapacityNeverExceeded(t *testing.T) {
	const donors = 8
	const capacity = 3

	env := newTestEnv()
	request := env.seedRequest("AB+", capacity)

	var wg sync.WaitGroup
	errs := make([]error, donors)
	for i := 0; i < donors; i++ {
		donor := env.seedDonor("D", "O-")
		wg.Add(1)
		go func(i int, donor *entities.User) {
			defer wg.Done()
			_, err := env.service.RespondToRequest(context.Background(), request.ID.String(), donor.ID.String())
			errs[i] = err
		}(i, donor)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, capacity, succeeded)

	accepted, err := env.requestRepo.CountAccepted(context.Background(), request.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, capacity, accepted)

	stored, err := env.requestRepo.GetRequestByID(context.Background(), request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusFulfilled, stored.Status)
	assert.Equal(t, capacity, stored.FulfilledUnits)
}

func TestCancelRequest(t *testing.T) {
	env := newTestEnv()
	request := env.seedRequest("A+", 1)

	err := env.service.CancelRequest(context.Background(), request.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRequestEdit)

	err = env.service.CancelRequest(context.Background(), request.ID.String(), request.RequesterID.String())
	require.NoError(t, err)

	err = env.service.CancelRequest(context.Background(), request.ID.String(), request.RequesterID.String())
	assert.ErrorIs(t, err, domain.ErrRequestNotActive)
}

func TestExpireOverdueRequests(t *testing.T) {
	env := newTestEnv()
	overdue := env.seedRequest("A+", 1)
	overdue.Deadline = time.Now().Add(-time.Hour)
	env.seedRequest("B-", 1)

	expired, err := env.service.ExpireOverdueRequests(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	stored, err := env.requestRepo.GetRequestByID(context.Background(), overdue.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusExpired, stored.Status)
}
