package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/matching"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/sms"
)

const fanOutWorkers = 8

type (
	// Dispatcher fans a blood request out to eligible donors over SMS and
	// in-app notifications. A failing send for one donor never aborts the
	// others.
	Dispatcher interface {
		DispatchRequestNotifications(ctx context.Context, request *entities.BloodRequest, donors []*entities.User, maxDistanceKm float64) (*domain.DispatchSummary, error)
		DispatchFulfilledNotifications(ctx context.Context, request *entities.BloodRequest, donors []*entities.User) (*domain.DispatchSummary, error)
	}

	// MatchRecorder tracks each notified donor as a pending match on the
	// request, so the fulfilled notice later knows who was asked but never
	// responded. Recording must be idempotent per request and donor.
	MatchRecorder interface {
		RecordPendingMatch(ctx context.Context, request *entities.BloodRequest, donor *entities.User) error
	}

	dispatcher struct {
		notificationRepository NotificationRepository
		matchRecorder          MatchRecorder
		smsGateway             sms.Gateway
	}

	notifyIntent struct {
		sms   bool
		push  bool
		inApp bool
	}
)

func NewDispatcher(notificationRepository NotificationRepository, matchRecorder MatchRecorder, smsGateway sms.Gateway) Dispatcher {
	return &dispatcher{
		notificationRepository: notificationRepository,
		matchRecorder:          matchRecorder,
		smsGateway:             smsGateway,
	}
}

func (d *dispatcher) DispatchRequestNotifications(ctx context.Context, request *entities.BloodRequest, donors []*entities.User, maxDistanceKm float64) (*domain.DispatchSummary, error) {
	var totalPotential, eligible, sent int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fanOutWorkers)

	for _, donor := range donors {
		if donor.BloodType == nil || *donor.BloodType == "" {
			continue
		}
		if donor.ID == request.RequesterID {
			continue
		}
		atomic.AddInt64(&totalPotential, 1)

		donor := donor
		group.Go(func() error {
			result := matching.EvaluateEligibility(donor, request, maxDistanceKm)
			if !result.IsEligible {
				return nil
			}
			atomic.AddInt64(&eligible, 1)

			if err := d.matchRecorder.RecordPendingMatch(groupCtx, request, donor); err != nil {
				log.Printf("pending match for donor %s failed: %v", donor.ID, err)
			}

			intent := resolveIntent(donor, request.UrgencyLevel)
			if d.notifyDonor(groupCtx, donor, request, intent) {
				atomic.AddInt64(&sent, 1)
			}
			return nil
		})
	}

	// Workers never return an error; failures are logged per donor.
	_ = group.Wait()

	return &domain.DispatchSummary{
		TotalPotentialDonors: int(totalPotential),
		EligibleDonors:       int(eligible),
		NotificationsSent:    int(sent),
	}, nil
}

func (d *dispatcher) DispatchFulfilledNotifications(ctx context.Context, request *entities.BloodRequest, donors []*entities.User) (*domain.DispatchSummary, error) {
	pending := make(map[string]bool, len(request.MatchedDonors))
	for _, record := range request.MatchedDonors {
		if record.Status == domain.MatchStatusPending {
			pending[record.DonorID.String()] = true
		}
	}

	var total, sent int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fanOutWorkers)

	for _, donor := range donors {
		if !pending[donor.ID.String()] {
			continue
		}
		atomic.AddInt64(&total, 1)

		donor := donor
		group.Go(func() error {
			intent := resolveIntent(donor, request.UrgencyLevel)
			message := fmt.Sprintf(
				"Good news: the blood request for %s at %s has been fulfilled. Thank you for offering to help.",
				request.PatientBloodType, request.HospitalName,
			)
			ok := false
			if intent.sms && donor.Phone != "" {
				if err := d.smsGateway.Send(groupCtx, donor.Phone, message); err != nil {
					log.Printf("fulfilled sms to donor %s failed: %v", donor.ID, err)
				} else {
					ok = true
				}
			}
			if intent.inApp {
				if err := d.appendNotification(groupCtx, donor, request, "Request fulfilled", message, false); err != nil {
					log.Printf("fulfilled notification for donor %s failed: %v", donor.ID, err)
				} else {
					ok = true
				}
			}
			if ok {
				atomic.AddInt64(&sent, 1)
			}
			return nil
		})
	}

	_ = group.Wait()

	return &domain.DispatchSummary{
		TotalPotentialDonors: int(total),
		EligibleDonors:       int(total),
		NotificationsSent:    int(sent),
	}, nil
}

// notifyDonor delivers over every requested channel and reports whether at
// least one delivery went through.
func (d *dispatcher) notifyDonor(ctx context.Context, donor *entities.User, request *entities.BloodRequest, intent notifyIntent) bool {
	delivered := false

	if intent.sms && donor.Phone != "" {
		body := solicitationSMS(request)
		if err := d.smsGateway.Send(ctx, donor.Phone, body); err != nil {
			log.Printf("sms to donor %s failed: %v", donor.ID, err)
		} else {
			delivered = true
		}
	}

	if intent.inApp {
		title := "Blood donation needed"
		if request.UrgencyLevel == domain.UrgencyCritical {
			title = "URGENT: blood donation needed"
		}
		message := fmt.Sprintf(
			"%s blood needed for %s at %s. You are a compatible donor.",
			request.PatientBloodType, request.PatientName, request.HospitalName,
		)
		urgent := request.UrgencyLevel == domain.UrgencyCritical
		if err := d.appendNotification(ctx, donor, request, title, message, urgent); err != nil {
			log.Printf("in-app notification for donor %s failed: %v", donor.ID, err)
		} else {
			delivered = true
		}
	}

	// Push intent is recorded on the in-app payload; delivery itself is
	// handled by the mobile client polling, not by this service.
	return delivered
}

func (d *dispatcher) appendNotification(ctx context.Context, donor *entities.User, request *entities.BloodRequest, title, message string, urgent bool) error {
	data, err := json.Marshal(map[string]string{
		"type":       "blood_request",
		"request_id": request.ID.String(),
		"blood_type": request.PatientBloodType,
		"urgency":    request.UrgencyLevel,
	})
	if err != nil {
		return err
	}

	return d.notificationRepository.CreateNotification(ctx, &entities.Notification{
		UserID:   donor.ID,
		Title:    title,
		Message:  message,
		Data:     string(data),
		IsUrgent: urgent,
	})
}

func resolveIntent(donor *entities.User, urgencyLevel string) notifyIntent {
	prefs := matching.ResolvePreferences(donor)
	allowed := matching.UrgencyAllowed(prefs, urgencyLevel)
	return notifyIntent{
		sms:   prefs.SMSEnabled && allowed,
		push:  prefs.PushEnabled && allowed,
		inApp: allowed,
	}
}

func solicitationSMS(request *entities.BloodRequest) string {
	switch request.UrgencyLevel {
	case domain.UrgencyCritical:
		return fmt.Sprintf(
			"URGENT: %s blood needed NOW at %s. A life depends on it. Open the app to respond.",
			request.PatientBloodType, request.HospitalName,
		)
	case domain.UrgencyUrgent:
		return fmt.Sprintf(
			"%s blood needed at %s within 24h. You are a compatible donor. Open the app to respond.",
			request.PatientBloodType, request.HospitalName,
		)
	default:
		return fmt.Sprintf(
			"%s blood needed at %s. You are a compatible donor. Open the app to respond.",
			request.PatientBloodType, request.HospitalName,
		)
	}
}
