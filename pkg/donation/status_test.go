package donation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

func TestDeriveStatus_Priority(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		donation entities.Donation
		want     string
	}{
		{
			name:     "no confirmations",
			donation: entities.Donation{},
			want:     domain.DonationStatusInitiated,
		},
		{
			name:     "scheduled only",
			donation: entities.Donation{ScheduledAt: &now},
			want:     domain.DonationStatusScheduled,
		},
		{
			name:     "donor arrived",
			donation: entities.Donation{DonorArrived: true},
			want:     domain.DonationStatusInProgress,
		},
		{
			name:     "donor completed",
			donation: entities.Donation{DonorArrived: true, DonorCompleted: true},
			want:     domain.DonationStatusDonorCompleted,
		},
		{
			name:     "hospital received beats donor completed",
			donation: entities.Donation{DonorCompleted: true, HospitalReceived: true},
			want:     domain.DonationStatusHospitalConfirm,
		},
		{
			name:     "blood processed beats hospital",
			donation: entities.Donation{HospitalReceived: true, BloodBankProcessed: true},
			want:     domain.DonationStatusBloodProcessed,
		},
		{
			name: "completed needs all three",
			donation: entities.Donation{
				DonorCompleted:    true,
				HospitalReceived:  true,
				RecipientReceived: true,
			},
			want: domain.DonationStatusCompleted,
		},
		{
			name: "recipient without hospital is not completed",
			donation: entities.Donation{
				DonorCompleted:    true,
				RecipientReceived: true,
			},
			want: domain.DonationStatusDonorCompleted,
		},
		{
			name: "recipient without donor completion is not completed",
			donation: entities.Donation{
				HospitalReceived:  true,
				RecipientReceived: true,
			},
			want: domain.DonationStatusHospitalConfirm,
		},
		{
			name: "failed override wins",
			donation: entities.Donation{
				Status:            domain.DonationStatusFailed,
				DonorCompleted:    true,
				HospitalReceived:  true,
				RecipientReceived: true,
			},
			want: domain.DonationStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(&tt.donation))
		})
	}
}

func TestDeriveStatus_CompletedIffAllThree(t *testing.T) {
	// Every combination of the three required flags; only all-true completes.
	for i := 0; i < 8; i++ {
		d := entities.Donation{
			DonorCompleted:    i&1 != 0,
			HospitalReceived:  i&2 != 0,
			RecipientReceived: i&4 != 0,
		}
		got := DeriveStatus(&d) == domain.DonationStatusCompleted
		want := d.DonorCompleted && d.HospitalReceived && d.RecipientReceived
		assert.Equal(t, want, got, "flags %03b", i)
	}
}

func TestDeriveVerification_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		donation  entities.Donation
		status    string
		wantLevel string
		wantScore int
	}{
		{
			name:      "no evidence",
			donation:  entities.Donation{},
			status:    domain.DonationStatusInitiated,
			wantLevel: domain.VerificationBasic,
			wantScore: 50,
		},
		{
			name:      "hospital confirmation only",
			donation:  entities.Donation{HospitalReceived: true},
			status:    domain.DonationStatusHospitalConfirm,
			wantLevel: domain.VerificationVerified,
			wantScore: 60,
		},
		{
			name:      "receipt",
			donation:  entities.Donation{HospitalReceiptURL: "https://cdn/receipt.jpg"},
			status:    domain.DonationStatusInitiated,
			wantLevel: domain.VerificationHospital,
			wantScore: 65,
		},
		{
			name: "receipt and signature",
			donation: entities.Donation{
				HospitalReceiptURL: "https://cdn/receipt.jpg",
				StaffSignatureURL:  "https://cdn/sig.jpg",
			},
			status:    domain.DonationStatusInitiated,
			wantLevel: domain.VerificationMedical,
			wantScore: 80,
		},
		{
			name: "completed with full evidence",
			donation: entities.Donation{
				HospitalReceived:   true,
				HospitalReceiptURL: "https://cdn/receipt.jpg",
				StaffSignatureURL:  "https://cdn/sig.jpg",
			},
			status:    domain.DonationStatusCompleted,
			wantLevel: domain.VerificationMedical,
			wantScore: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, score := DeriveVerification(&tt.donation, tt.status)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestRecompute(t *testing.T) {
	d := entities.Donation{
		DonorCompleted:     true,
		HospitalReceived:   true,
		RecipientReceived:  true,
		HospitalReceiptURL: "https://cdn/receipt.jpg",
	}

	Recompute(&d)

	assert.Equal(t, domain.DonationStatusCompleted, d.Status)
	assert.Equal(t, domain.VerificationHospital, d.VerificationLevel)
	assert.Equal(t, 85, d.TrustScore)
}

func TestHasOpenDispute(t *testing.T) {
	d := entities.Donation{
		Disputes: []*entities.DonationDispute{
			{Status: domain.DisputeStatusResolved},
		},
	}
	assert.False(t, HasOpenDispute(&d))

	d.Disputes = append(d.Disputes, &entities.DonationDispute{Status: domain.DisputeStatusOpen})
	assert.True(t, HasOpenDispute(&d))
}
