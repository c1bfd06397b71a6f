package handlers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/presenters"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/request"
)

type (
	RequestHandler interface {
		CreateRequest(c *fiber.Ctx) error
		GetActiveRequests(c *fiber.Ctx) error
		GetNearbyRequests(c *fiber.Ctx) error
		GetRequestByID(c *fiber.Ctx) error
		GetMyRequests(c *fiber.Ctx) error
		GetMyResponses(c *fiber.Ctx) error
		RespondToRequest(c *fiber.Ctx) error
		CancelRequest(c *fiber.Ctx) error
	}

	requestHandler struct {
		requestService request.BloodRequestService
		validator      *validator.Validate
	}
)

func NewRequestHandler(requestService request.BloodRequestService, validator *validator.Validate) RequestHandler {
	return &requestHandler{
		requestService: requestService,
		validator:      validator,
	}
}

func (h *requestHandler) CreateRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.CreateBloodRequestRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRequest, err)
	}

	created, summary, err := h.requestService.CreateRequest(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRequest, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"request":  created,
		"dispatch": summary,
	}, fiber.StatusCreated, domain.MessageSuccessCreateRequest)
}

func (h *requestHandler) GetActiveRequests(c *fiber.Ctx) error {
	page, limit := pagination(c)

	requests, count, err := h.requestService.GetActiveRequests(c.Context(), page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"requests":   requests,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetRequests)
}

func (h *requestHandler) GetNearbyRequests(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	radius, err := strconv.ParseFloat(c.Query("radius", "20"), 64)
	if err != nil || radius <= 0 || radius > 100 {
		radius = 20
	}

	req := domain.GetNearbyRequestsRequest{
		Latitude:  lat,
		Longitude: lng,
		Radius:    radius,
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	requests, err := h.requestService.GetNearbyRequests(c.Context(), req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"requests": requests,
	}, fiber.StatusOK, domain.MessageSuccessGetRequests)
}

func (h *requestHandler) GetRequestByID(c *fiber.Ctx) error {
	requestID := c.Params("id")
	if requestID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, domain.ErrRequestNotFound)
	}

	found, err := h.requestService.GetRequestByID(c.Context(), requestID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetRequests, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	return presenters.SuccessResponse(c, found, fiber.StatusOK, domain.MessageSuccessGetRequests)
}

func (h *requestHandler) GetMyRequests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, limit := pagination(c)

	requests, count, err := h.requestService.GetUserRequests(c.Context(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"requests":   requests,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetRequests)
}

func (h *requestHandler) GetMyResponses(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, limit := pagination(c)

	responses, count, err := h.requestService.GetDonorResponses(c.Context(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRequests, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"responses":  responses,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetRequests)
}

// RespondToRequest is the donor accept. A request that filled up while the
// donor was deciding comes back as a conflict, not a generic failure.
func (h *requestHandler) RespondToRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	requestID := c.Params("id")

	result, err := h.requestService.RespondToRequest(c.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedRespondRequest, err)
		case errors.Is(err, domain.ErrRequestNoLongerAvailable),
			errors.Is(err, domain.ErrRequestNotActive),
			errors.Is(err, domain.ErrAlreadyResponded):
			return presenters.ErrorResponse(c, fiber.StatusConflict, domain.MessageRequestNoLongerNeeded, err)
		case errors.Is(err, domain.ErrRequestDeadlinePassed):
			return presenters.ErrorResponse(c, fiber.StatusGone, domain.MessageRequestDeadlinePassed, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRespondRequest, err)
		}
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessRespondRequest)
}

func (h *requestHandler) CancelRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	requestID := c.Params("id")

	if err := h.requestService.CancelRequest(c.Context(), requestID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedCancelRequest, err)
		case errors.Is(err, domain.ErrUnauthorizedRequestEdit):
			return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MessageFailedCancelRequest, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCancelRequest, err)
		}
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessCancelRequest)
}

func pagination(c *fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	return page, limit
}

func paginationMap(page, limit int, count int64) fiber.Map {
	return fiber.Map{
		"page":        page,
		"limit":       limit,
		"total":       count,
		"total_pages": (count + int64(limit) - 1) / int64(limit),
	}
}
