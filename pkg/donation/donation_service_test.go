package donation

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type fakeDonationRepository struct {
	mu        sync.Mutex
	donations map[string]*entities.Donation
	byRequest map[string]string
	timeline  []*entities.DonationTimelineEntry
	disputes  map[string]*entities.DonationDispute
}

func newFakeDonationRepository() *fakeDonationRepository {
	return &fakeDonationRepository{
		donations: make(map[string]*entities.Donation),
		byRequest: make(map[string]string),
		disputes:  make(map[string]*entities.DonationDispute),
	}
}

func (f *fakeDonationRepository) CreateIfAbsent(_ context.Context, donation *entities.Donation) (*entities.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existingID, ok := f.byRequest[donation.RequestID.String()]; ok {
		return f.donations[existingID], nil
	}
	copied := *donation
	f.donations[donation.ID.String()] = &copied
	f.byRequest[donation.RequestID.String()] = donation.ID.String()
	return &copied, nil
}

func (f *fakeDonationRepository) GetDonationByID(_ context.Context, id string) (*entities.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	donation, ok := f.donations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *donation
	copied.Disputes = f.disputesFor(donation.ID)
	return &copied, nil
}

func (f *fakeDonationRepository) GetDonationByRequestID(_ context.Context, requestID string) (*entities.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byRequest[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.donations[id]
	copied.Disputes = f.disputesFor(copied.ID)
	return &copied, nil
}

func (f *fakeDonationRepository) GetUserDonations(_ context.Context, userID string, _, _ int) ([]*entities.Donation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*entities.Donation
	for _, donation := range f.donations {
		if donation.DonorID.String() == userID || donation.RecipientID.String() == userID {
			copied := *donation
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeDonationRepository) SaveDonation(_ context.Context, donation *entities.Donation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *donation
	copied.Disputes = nil
	copied.Timeline = nil
	f.donations[donation.ID.String()] = &copied
	return nil
}

func (f *fakeDonationRepository) AppendTimelineEntry(_ context.Context, entry *entities.DonationTimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeline = append(f.timeline, entry)
	return nil
}

func (f *fakeDonationRepository) CreateDispute(_ context.Context, dispute *entities.DonationDispute) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disputes[dispute.ID.String()] = dispute
	return nil
}

func (f *fakeDonationRepository) GetDisputeByID(_ context.Context, id string) (*entities.DonationDispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dispute, ok := f.disputes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return dispute, nil
}

func (f *fakeDonationRepository) UpdateDisputeStatus(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dispute, ok := f.disputes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	dispute.Status = status
	return nil
}

func (f *fakeDonationRepository) disputesFor(donationID uuid.UUID) []*entities.DonationDispute {
	var result []*entities.DonationDispute
	for _, dispute := range f.disputes {
		if dispute.DonationID == donationID {
			result = append(result, dispute)
		}
	}
	return result
}

type fakeS3 struct{}

func (fakeS3) UploadFile(key string, _ *multipart.FileHeader, dir string, _ ...string) (string, error) {
	return dir + "/" + key + ".jpg", nil
}

func (fakeS3) GetPublicLinkKey(key string) string {
	return "https://cdn.test/" + key
}

func testFixtures() (*entities.BloodRequest, *entities.User) {
	bloodType := "O-"
	requester := uuid.New()
	request := &entities.BloodRequest{
		ID:               uuid.New(),
		RequesterID:      requester,
		PatientBloodType: "A+",
	}
	donor := &entities.User{
		ID:        uuid.New(),
		Name:      "Fatimetou",
		BloodType: &bloodType,
	}
	return request, donor
}

func TestCreateForAccept_Idempotent(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	first, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusInitiated, first.Status)
	assert.Equal(t, 50, first.TrustScore)

	second, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	initiated := 0
	for _, entry := range repo.timeline {
		if entry.Event == "donation_initiated" {
			initiated++
		}
	}
	assert.Equal(t, 1, initiated, "timeline entry should only be written once")
}

func TestRecordConfirmation_FullFlow(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	steps := []struct {
		confirmation string
		actor        string
		userID       string
		wantStatus   string
	}{
		{domain.ConfirmationDonorArrived, domain.ActorDonor, donor.ID.String(), domain.DonationStatusInProgress},
		{domain.ConfirmationDonorCompleted, domain.ActorDonor, donor.ID.String(), domain.DonationStatusDonorCompleted},
		{domain.ConfirmationHospitalReceived, domain.ActorHospital, "", domain.DonationStatusHospitalConfirm},
		{domain.ConfirmationRecipientReceived, domain.ActorRecipient, request.RequesterID.String(), domain.DonationStatusCompleted},
	}

	var result *domain.Donation
	for _, step := range steps {
		result, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
			DonationID:   created.ID,
			Confirmation: step.confirmation,
			Actor:        step.actor,
		}, step.userID)
		require.NoError(t, err, step.confirmation)
		assert.Equal(t, step.wantStatus, result.Status, step.confirmation)
	}

	// completion is worth 20 on top of the hospital-confirmation tier
	assert.Equal(t, 80, result.TrustScore)
	assert.Equal(t, domain.VerificationVerified, result.VerificationLevel)
}

func TestRecordConfirmation_PermissiveOrdering(t *testing.T) {
	// recipient_received may land before hospital_received; status stays
	// below completed until all three required confirmations exist.
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	result, err := service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationRecipientReceived,
		Actor:        domain.ActorRecipient,
	}, request.RequesterID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusInitiated, result.Status)
	assert.True(t, result.RecipientReceived.Confirmed)

	result, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationDonorCompleted,
		Actor:        domain.ActorDonor,
	}, donor.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusDonorCompleted, result.Status)

	result, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationHospitalReceived,
		Actor:        domain.ActorHospital,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusCompleted, result.Status)
}

func TestRecordConfirmation_DoubleSetRejected(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	req := domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationDonorArrived,
		Actor:        domain.ActorDonor,
	}
	_, err = service.RecordConfirmation(context.Background(), req, donor.ID.String())
	require.NoError(t, err)

	_, err = service.RecordConfirmation(context.Background(), req, donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrConfirmationAlreadySet)
}

func TestRecordConfirmation_ActorAuthorization(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	stranger := uuid.New().String()

	_, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationDonorArrived,
		Actor:        domain.ActorDonor,
	}, stranger)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonationAccess)

	_, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationRecipientReceived,
		Actor:        domain.ActorRecipient,
	}, donor.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonationAccess)
}

func TestRecordConfirmation_UnknownDonation(t *testing.T) {
	service := NewDonationService(newFakeDonationRepository(), fakeS3{})

	_, err := service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   uuid.New().String(),
		Confirmation: domain.ConfirmationDonorArrived,
		Actor:        domain.ActorDonor,
	}, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrDonationNotFound)
}

func TestReportDispute_SurfacesWithoutRevertingStatus(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	_, err = service.RecordConfirmation(context.Background(), domain.RecordConfirmationRequest{
		DonationID:   created.ID,
		Confirmation: domain.ConfirmationDonorCompleted,
		Actor:        domain.ActorDonor,
	}, donor.ID.String())
	require.NoError(t, err)

	result, err := service.ReportDispute(context.Background(), domain.ReportDisputeRequest{
		DonationID: created.ID,
		Reason:     "hospital says the donor never showed up",
	}, request.RequesterID.String())
	require.NoError(t, err)

	assert.True(t, result.HasOpenDispute)
	assert.Equal(t, domain.DonationStatusDonorCompleted, result.Status)
	require.Len(t, result.Disputes, 1)
	assert.Equal(t, domain.DisputeStatusOpen, result.Disputes[0].Status)
}

func TestReportDispute_StrangerRejected(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	_, err = service.ReportDispute(context.Background(), domain.ReportDisputeRequest{
		DonationID: created.ID,
		Reason:     "unrelated third party complaint",
	}, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonationAccess)
}

func TestResolveDispute_FailDonation(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	result, err := service.ReportDispute(context.Background(), domain.ReportDisputeRequest{
		DonationID: created.ID,
		Reason:     "blood bag was rejected during screening",
	}, donor.ID.String())
	require.NoError(t, err)
	disputeID := result.Disputes[0].ID

	err = service.ResolveDispute(context.Background(), disputeID, domain.DisputeStatusResolved, true)
	require.NoError(t, err)

	after, err := service.GetDonationByID(context.Background(), created.ID, donor.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusFailed, after.Status)
	assert.False(t, after.HasOpenDispute)
}

func TestUploadEvidence_RaisesVerification(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	file := &multipart.FileHeader{Filename: "receipt.jpg"}

	result, err := service.UploadEvidence(context.Background(), domain.UploadEvidenceRequest{
		DonationID: created.ID,
		Kind:       domain.EvidenceHospitalReceipt,
		File:       file,
	}, donor.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationHospital, result.VerificationLevel)
	assert.NotEmpty(t, result.HospitalReceiptURL)

	result, err = service.UploadEvidence(context.Background(), domain.UploadEvidenceRequest{
		DonationID: created.ID,
		Kind:       domain.EvidenceStaffSignature,
		File:       file,
	}, donor.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationMedical, result.VerificationLevel)
	assert.Equal(t, 80, result.TrustScore)
}

func TestGetDonation_AccessControl(t *testing.T) {
	repo := newFakeDonationRepository()
	service := NewDonationService(repo, fakeS3{})
	request, donor := testFixtures()

	created, err := service.CreateForAccept(context.Background(), request, donor)
	require.NoError(t, err)

	_, err = service.GetDonationByID(context.Background(), created.ID, donor.ID.String())
	assert.NoError(t, err)

	_, err = service.GetDonationByID(context.Background(), created.ID, request.RequesterID.String())
	assert.NoError(t, err)

	_, err = service.GetDonationByID(context.Background(), created.ID, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDonationAccess)

	_, err = service.GetDonationByRequest(context.Background(), request.ID.String(), donor.ID.String())
	assert.NoError(t, err)
}
