package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/presenters"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/chat"
)

type (
	ChatHandler interface {
		GetMyChannels(c *fiber.Ctx) error
		GetChannelMessages(c *fiber.Ctx) error
		SendMessage(c *fiber.Ctx) error
	}

	chatHandler struct {
		chatService chat.ChatService
		validator   *validator.Validate
	}
)

func NewChatHandler(chatService chat.ChatService, validator *validator.Validate) ChatHandler {
	return &chatHandler{
		chatService: chatService,
		validator:   validator,
	}
}

func (h *chatHandler) GetMyChannels(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	channels, err := h.chatService.GetUserChannels(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetChats, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"channels": channels,
	}, fiber.StatusOK, domain.MessageSuccessGetChats)
}

func (h *chatHandler) GetChannelMessages(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	channelID := c.Params("id")
	page, limit := pagination(c)

	messages, count, err := h.chatService.GetChannelMessages(c.Context(), channelID, userID, page, limit)
	if err != nil {
		return chatError(c, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"messages":   messages,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetChats)
}

func (h *chatHandler) SendMessage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.SendMessageRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.ChannelID = c.Params("id")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSendMessage, err)
	}

	message, err := h.chatService.SendMessage(c.Context(), *req, userID)
	if err != nil {
		return chatError(c, err)
	}

	return presenters.SuccessResponse(c, message, fiber.StatusCreated, domain.MessageSuccessSendMessage)
}

func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrChatChannelNotFound):
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetChats, err)
	case errors.Is(err, domain.ErrNotChannelParticipant):
		return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MessageFailedGetChats, err)
	default:
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetChats, err)
	}
}
