package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/handlers"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/middleware"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/jwt"
)

type Config struct {
	App                 *fiber.App
	UserHandler         handlers.UserHandler
	RequestHandler      handlers.RequestHandler
	DonationHandler     handlers.DonationHandler
	NotificationHandler handlers.NotificationHandler
	ChatHandler         handlers.ChatHandler
	Middleware          middleware.Middleware
	JWTService          jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.BloodRequests()
	c.Donations()
	c.Notifications()
	c.Chat()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/verify-email", c.UserHandler.VerifyEmail)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		user.Patch("/update", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateUser)
		user.Patch("/preferences", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdatePreferences)
		user.Post("/phone/send-code", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.SendPhoneVerification)
		user.Post("/phone/verify", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.VerifyPhone)
	}
}

func (c *Config) BloodRequests() {
	requests := c.App.Group("/api/v1/blood-requests", c.Middleware.AuthMiddleware(c.JWTService))

	requests.Post("", c.RequestHandler.CreateRequest)
	requests.Get("", c.RequestHandler.GetActiveRequests)
	requests.Get("/nearby", c.RequestHandler.GetNearbyRequests)
	requests.Get("/mine", c.RequestHandler.GetMyRequests)
	requests.Get("/responses", c.RequestHandler.GetMyResponses)
	requests.Get("/:id", c.RequestHandler.GetRequestByID)
	requests.Post("/:id/respond", c.RequestHandler.RespondToRequest)
	requests.Delete("/:id", c.RequestHandler.CancelRequest)
}

func (c *Config) Donations() {
	donations := c.App.Group("/api/v1/donations", c.Middleware.AuthMiddleware(c.JWTService))

	donations.Get("", c.DonationHandler.GetUserDonations)
	donations.Get("/by-request/:requestId", c.DonationHandler.GetDonationByRequest)
	donations.Get("/:id", c.DonationHandler.GetDonationByID)
	donations.Post("/:id/confirm", c.DonationHandler.RecordConfirmation)
	donations.Post("/:id/schedule", c.DonationHandler.ScheduleDonation)
	donations.Post("/:id/dispute", c.DonationHandler.ReportDispute)
	donations.Post("/:id/evidence", c.DonationHandler.UploadEvidence)
	donations.Patch("/disputes/:disputeId", c.Middleware.RequireRole(domain.RoleHospital), c.DonationHandler.ResolveDispute)
}

func (c *Config) Notifications() {
	notifications := c.App.Group("/api/v1/notifications", c.Middleware.AuthMiddleware(c.JWTService))

	notifications.Get("", c.NotificationHandler.GetMyNotifications)
	notifications.Get("/unread-count", c.NotificationHandler.CountUnread)
	notifications.Patch("/:id/read", c.NotificationHandler.MarkRead)
}

func (c *Config) Chat() {
	chats := c.App.Group("/api/v1/chats", c.Middleware.AuthMiddleware(c.JWTService))

	chats.Get("", c.ChatHandler.GetMyChannels)
	chats.Get("/:id/messages", c.ChatHandler.GetChannelMessages)
	chats.Post("/:id/messages", c.ChatHandler.SendMessage)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
