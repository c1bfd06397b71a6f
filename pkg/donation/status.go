package donation

import (
	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

// DeriveStatus computes the overall donation status from the confirmation
// set. Priority order, highest completeness first. The stored status only
// contributes the lifecycle floor (scheduled/initiated) and the terminal
// failed override; everything in between is derived, never trusted.
func DeriveStatus(d *entities.Donation) string {
	if d.Status == domain.DonationStatusFailed {
		return domain.DonationStatusFailed
	}
	if d.RecipientReceived && d.DonorCompleted && d.HospitalReceived {
		return domain.DonationStatusCompleted
	}
	if d.BloodBankProcessed {
		return domain.DonationStatusBloodProcessed
	}
	if d.HospitalReceived {
		return domain.DonationStatusHospitalConfirm
	}
	if d.DonorCompleted {
		return domain.DonationStatusDonorCompleted
	}
	if d.DonorArrived {
		return domain.DonationStatusInProgress
	}
	if d.ScheduledAt != nil {
		return domain.DonationStatusScheduled
	}
	return domain.DonationStatusInitiated
}

// DeriveVerification computes the verification level and trust score from
// the accumulated evidence. Base score 50; completion is worth 20; the
// strongest evidence tier adds its bonus. Capped at 100.
func DeriveVerification(d *entities.Donation, status string) (string, int) {
	score := 50
	level := domain.VerificationBasic

	if status == domain.DonationStatusCompleted {
		score += 20
	}

	switch {
	case d.HospitalReceiptURL != "" && d.StaffSignatureURL != "":
		level = domain.VerificationMedical
		score += 30
	case d.HospitalReceiptURL != "":
		level = domain.VerificationHospital
		score += 15
	case d.HospitalReceived:
		level = domain.VerificationVerified
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return level, score
}

// Recompute refreshes the derived fields in place. Called after every
// confirmation or evidence mutation, before persisting.
func Recompute(d *entities.Donation) {
	status := DeriveStatus(d)
	level, score := DeriveVerification(d, status)
	d.Status = status
	d.VerificationLevel = level
	d.TrustScore = score
}

// HasOpenDispute reports whether any dispute is still open or under
// investigation. An open dispute is surfaced to callers but does not by
// itself revert the derived status.
func HasOpenDispute(d *entities.Donation) bool {
	for _, dispute := range d.Disputes {
		if dispute.Status == domain.DisputeStatusOpen || dispute.Status == domain.DisputeStatusInvestigating {
			return true
		}
	}
	return false
}
