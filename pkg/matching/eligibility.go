package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/bloodtype"
)

const earthRadiusKm = 6371.0

type Eligibility struct {
	IsEligible bool     `json:"is_eligible"`
	Reasons    []string `json:"reasons"`
}

// EvaluateEligibility checks whether a donor may respond to a blood request.
// Every check runs so the caller gets the full list of failing reasons.
// A maxDistanceKm of zero or less disables the geographic check; the check is
// also skipped when either side has no coordinates.
// The request must carry its matched donor records for the duplicate check.
func EvaluateEligibility(donor *entities.User, request *entities.BloodRequest, maxDistanceKm float64) Eligibility {
	var reasons []string

	if donor.BloodType == nil || *donor.BloodType == "" {
		reasons = append(reasons, "donor blood type is not set")
	} else if !bloodtype.CanDonate(*donor.BloodType, request.PatientBloodType) {
		reasons = append(reasons, fmt.Sprintf(
			"blood type %s is not compatible with %s",
			*donor.BloodType, request.PatientBloodType,
		))
	}

	// Absent flag defaults to available
	if donor.AvailableForDonation != nil && !*donor.AvailableForDonation {
		reasons = append(reasons, "donor is not available for donation")
	}

	// Pending records only mean the donor was notified, not that they responded
	for _, record := range request.MatchedDonors {
		if record.DonorID == donor.ID && record.Status != domain.MatchStatusPending {
			reasons = append(reasons, "donor has already responded to this request")
			break
		}
	}

	if request.RequesterID == donor.ID {
		reasons = append(reasons, "requester cannot respond to their own request")
	}

	if maxDistanceKm > 0 &&
		donor.Latitude != nil && donor.Longitude != nil &&
		(request.HospitalLatitude != 0 || request.HospitalLongitude != 0) {
		distance := Haversine(*donor.Latitude, *donor.Longitude, request.HospitalLatitude, request.HospitalLongitude)
		if distance > maxDistanceKm {
			reasons = append(reasons, fmt.Sprintf(
				"donor is %.1f km from the hospital, beyond the %.0f km limit",
				distance, maxDistanceKm,
			))
		}
	}

	return Eligibility{
		IsEligible: len(reasons) == 0,
		Reasons:    reasons,
	}
}

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ResolvePreferences applies the notification preference defaults in one
// place: sms on, push on, every urgency level allowed.
func ResolvePreferences(user *entities.User) domain.NotificationPreferences {
	prefs := domain.NotificationPreferences{
		SMSEnabled:  true,
		PushEnabled: true,
		UrgencyLevels: []string{
			domain.UrgencyCritical,
			domain.UrgencyUrgent,
			domain.UrgencyStandard,
		},
	}

	if user.SMSEnabled != nil {
		prefs.SMSEnabled = *user.SMSEnabled
	}
	if user.PushEnabled != nil {
		prefs.PushEnabled = *user.PushEnabled
	}
	if user.UrgencyLevels != "" {
		levels := make([]string, 0, 3)
		for _, level := range strings.Split(user.UrgencyLevels, ",") {
			if level = strings.TrimSpace(level); level != "" {
				levels = append(levels, level)
			}
		}
		prefs.UrgencyLevels = levels
	}

	return prefs
}

// UrgencyAllowed reports whether the donor accepts notifications for the
// request's urgency level.
func UrgencyAllowed(prefs domain.NotificationPreferences, urgencyLevel string) bool {
	for _, level := range prefs.UrgencyLevels {
		if level == urgencyLevel {
			return true
		}
	}
	return false
}
