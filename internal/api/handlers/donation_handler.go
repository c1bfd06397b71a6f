package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/presenters"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/donation"
)

type (
	DonationHandler interface {
		GetUserDonations(c *fiber.Ctx) error
		GetDonationByID(c *fiber.Ctx) error
		GetDonationByRequest(c *fiber.Ctx) error
		RecordConfirmation(c *fiber.Ctx) error
		ScheduleDonation(c *fiber.Ctx) error
		ReportDispute(c *fiber.Ctx) error
		ResolveDispute(c *fiber.Ctx) error
		UploadEvidence(c *fiber.Ctx) error
	}

	donationHandler struct {
		donationService donation.DonationService
		validator       *validator.Validate
	}

	scheduleDonationRequest struct {
		ScheduledAt string `json:"scheduled_at" validate:"required"`
	}

	resolveDisputeRequest struct {
		Status       string `json:"status" validate:"required,oneof=investigating resolved closed"`
		FailDonation bool   `json:"fail_donation"`
	}
)

func NewDonationHandler(donationService donation.DonationService, validator *validator.Validate) DonationHandler {
	return &donationHandler{
		donationService: donationService,
		validator:       validator,
	}
}

func (h *donationHandler) GetUserDonations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, limit := pagination(c)

	donations, count, err := h.donationService.GetUserDonations(c.Context(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetDonation, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"donations":  donations,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetDonation)
}

func (h *donationHandler) GetDonationByID(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	donationID := c.Params("id")

	found, err := h.donationService.GetDonationByID(c.Context(), donationID, userID)
	if err != nil {
		return donationError(c, domain.MessageFailedGetDonation, err)
	}

	return presenters.SuccessResponse(c, found, fiber.StatusOK, domain.MessageSuccessGetDonation)
}

func (h *donationHandler) GetDonationByRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	requestID := c.Params("requestId")

	found, err := h.donationService.GetDonationByRequest(c.Context(), requestID, userID)
	if err != nil {
		return donationError(c, domain.MessageFailedGetDonation, err)
	}

	return presenters.SuccessResponse(c, found, fiber.StatusOK, domain.MessageSuccessGetDonation)
}

func (h *donationHandler) RecordConfirmation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.RecordConfirmationRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.DonationID = c.Params("id")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRecordConfirmation, err)
	}

	updated, err := h.donationService.RecordConfirmation(c.Context(), *req, userID)
	if err != nil {
		if errors.Is(err, domain.ErrConfirmationAlreadySet) {
			return presenters.ErrorResponse(c, fiber.StatusConflict, domain.MessageFailedRecordConfirmation, err)
		}
		return donationError(c, domain.MessageFailedRecordConfirmation, err)
	}

	return presenters.SuccessResponse(c, updated, fiber.StatusOK, domain.MessageSuccessRecordConfirmation)
}

func (h *donationHandler) ScheduleDonation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	donationID := c.Params("id")

	req := new(scheduleDonationRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRecordConfirmation, err)
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	updated, err := h.donationService.ScheduleDonation(c.Context(), donationID, userID, at)
	if err != nil {
		return donationError(c, domain.MessageFailedRecordConfirmation, err)
	}

	return presenters.SuccessResponse(c, updated, fiber.StatusOK, domain.MessageSuccessRecordConfirmation)
}

func (h *donationHandler) ReportDispute(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.ReportDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.DonationID = c.Params("id")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReportDispute, err)
	}

	updated, err := h.donationService.ReportDispute(c.Context(), *req, userID)
	if err != nil {
		return donationError(c, domain.MessageFailedReportDispute, err)
	}

	return presenters.SuccessResponse(c, updated, fiber.StatusOK, domain.MessageSuccessReportDispute)
}

// ResolveDispute is a hospital-role operation.
func (h *donationHandler) ResolveDispute(c *fiber.Ctx) error {
	disputeID := c.Params("disputeId")

	req := new(resolveDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReportDispute, err)
	}

	if err := h.donationService.ResolveDispute(c.Context(), disputeID, req.Status, req.FailDonation); err != nil {
		return donationError(c, domain.MessageFailedReportDispute, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessReportDispute)
}

func (h *donationHandler) UploadEvidence(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := domain.UploadEvidenceRequest{
		DonationID: c.Params("id"),
		Kind:       c.FormValue("kind"),
	}
	req.File, _ = c.FormFile("file")
	if req.File == nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadEvidence, domain.ErrFileRequired)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadEvidence, err)
	}

	updated, err := h.donationService.UploadEvidence(c.Context(), req, userID)
	if err != nil {
		return donationError(c, domain.MessageFailedUploadEvidence, err)
	}

	return presenters.SuccessResponse(c, updated, fiber.StatusOK, domain.MessageSuccessUploadEvidence)
}

func donationError(c *fiber.Ctx, message string, err error) error {
	switch {
	case errors.Is(err, domain.ErrDonationNotFound):
		return presenters.ErrorResponse(c, fiber.StatusNotFound, message, err)
	case errors.Is(err, domain.ErrUnauthorizedDonationAccess):
		return presenters.ErrorResponse(c, fiber.StatusForbidden, message, err)
	default:
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, message, err)
	}
}
