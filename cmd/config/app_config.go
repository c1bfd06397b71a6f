package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/handlers"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/api/routes"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/middleware"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils/storage"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/chat"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/donation"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/jwt"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/notification"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/request"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/sms"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/user"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/verification"
)

const expireSweepInterval = time.Minute

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Nouakchott",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3, err := storage.NewAwsS3()
	if err != nil {
		return nil, err
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     utils.GetConfig("REDIS_ADDR"),
		Password: utils.GetConfig("REDIS_PASSWORD"),
	})
	codeStore := verification.NewRedisCodeStore(redisClient)
	smsGateway := sms.NewGateway()

	maxDistanceKm, err := strconv.ParseFloat(utils.GetConfig("MATCH_MAX_DISTANCE_KM"), 64)
	if err != nil {
		// zero disables the distance filter
		maxDistanceKm = 0
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	requestRepository := request.NewBloodRequestRepository(db)
	notificationRepository := notification.NewNotificationRepository(db)
	chatRepository := chat.NewChatRepository(db)
	donationRepository := donation.NewDonationRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService, smsGateway, codeStore)
	dispatcher := notification.NewDispatcher(notificationRepository, requestRepository, smsGateway)
	notificationService := notification.NewNotificationService(notificationRepository)
	chatService := chat.NewChatService(chatRepository)
	donationService := donation.NewDonationService(donationRepository, s3)
	requestService := request.NewBloodRequestService(
		requestRepository,
		userRepository,
		dispatcher,
		chatService,
		donationService,
		smsGateway,
		maxDistanceKm,
	)

	startExpireSweep(requestService)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	requestHandler := handlers.NewRequestHandler(requestService, validator)
	donationHandler := handlers.NewDonationHandler(donationService, validator)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatService, validator)

	// routes
	routesConfig := routes.Config{
		App:                 app,
		UserHandler:         userHandler,
		RequestHandler:      requestHandler,
		DonationHandler:     donationHandler,
		NotificationHandler: notificationHandler,
		ChatHandler:         chatHandler,
		Middleware:          middlewares,
		JWTService:          jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

// startExpireSweep marks requests whose deadline passed as expired on a
// fixed interval, so stale requests stop accepting donors even when no
// traffic touches them.
func startExpireSweep(requestService request.BloodRequestService) {
	go func() {
		ticker := time.NewTicker(expireSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			expired, err := requestService.ExpireOverdueRequests(context.Background())
			if err != nil {
				log.Errorf("expire sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Infof("expired %d overdue blood requests", expired)
			}
		}
	}()
}
