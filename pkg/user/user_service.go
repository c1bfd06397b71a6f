package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils"
	"github.com/ahmedEssyad/travel-connect-sub001/internal/utils/mailing"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/jwt"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/matching"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/sms"
	"github.com/ahmedEssyad/travel-connect-sub001/pkg/verification"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
		Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (*domain.User, error)
		UpdateUser(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
		UpdatePreferences(ctx context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.User, error)
		VerifyEmail(ctx context.Context, token string) error
		SendPhoneVerification(ctx context.Context, userID string) error
		VerifyPhone(ctx context.Context, userID string, req domain.VerifyPhoneRequest) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		smsGateway     sms.Gateway
		codeStore      verification.CodeStore
	}
)

func NewUserService(
	userRepository UserRepository,
	jwtService jwt.JWTService,
	smsGateway sms.Gateway,
	codeStore verification.CodeStore,
) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		smsGateway:     smsGateway,
		codeStore:      codeStore,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if s.userRepository.CheckEmailExist(ctx, req.Email) {
		return nil, domain.ErrEmailAlreadyUsed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Phone:    req.Phone,
		Role:     domain.RoleUser,
	}
	if req.BloodType != "" {
		user.BloodType = &req.BloodType
		user.IsDonor = true
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendVerificationEmail(user); err != nil {
		return nil, err
	}

	return toDomainUser(user), nil
}

func (s *userService) sendVerificationEmail(user *entities.User) error {
	token, err := s.jwtService.GenerateVerificationToken(map[string]any{
		"user_id": user.ID.String(),
	}, 24*time.Hour)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/users/verify-email?token=%s", utils.GetConfig("APP_URL"), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Welcome aboard. Please confirm your email by clicking <a href=%q>this link</a>. The link expires in 24 hours.</p>",
		user.Name, link,
	)
	return mailing.SendMail(user.Email, "Verify your email", body)
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWrongCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrWrongCredentials
	}

	if !user.IsVerified {
		return nil, domain.ErrAccountNotVerified
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	return &domain.LoginResponse{
		Token: token,
		User:  toDomainUser(user),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" && req.Phone != user.Phone {
		user.Phone = req.Phone
		user.PhoneVerified = false
	}
	if req.BloodType != "" {
		user.BloodType = &req.BloodType
	}
	if req.IsDonor != nil {
		user.IsDonor = *req.IsDonor
	}
	if req.AvailableForDonation != nil {
		user.AvailableForDonation = req.AvailableForDonation
	}
	if req.LastDonationDate != "" {
		date, err := time.Parse(time.RFC3339, req.LastDonationDate)
		if err != nil {
			return nil, err
		}
		user.LastDonationDate = &date
	}
	if req.Latitude != nil {
		user.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		user.Longitude = req.Longitude
	}

	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return toDomainUser(user), nil
}

func (s *userService) UpdatePreferences(ctx context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if req.SMSEnabled != nil {
		user.SMSEnabled = req.SMSEnabled
	}
	if req.PushEnabled != nil {
		user.PushEnabled = req.PushEnabled
	}
	if req.UrgencyLevels != nil {
		user.UrgencyLevels = strings.Join(req.UrgencyLevels, ",")
	}

	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return toDomainUser(user), nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateVerificationToken(token)
	if err != nil {
		return err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	user.IsVerified = true
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) SendPhoneVerification(ctx context.Context, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.Phone == "" {
		return domain.ErrPhoneMissing
	}

	code, err := s.codeStore.Issue(ctx, user.ID.String())
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	return s.smsGateway.Send(ctx, user.Phone, body)
}

func (s *userService) VerifyPhone(ctx context.Context, userID string, req domain.VerifyPhoneRequest) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	ok, err := s.codeStore.Verify(ctx, user.ID.String(), req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrVerificationCodeWrong
	}

	user.PhoneVerified = true
	return s.userRepository.UpdateUser(ctx, user)
}

func toDomainUser(user *entities.User) *domain.User {
	preferences := matching.ResolvePreferences(user)

	result := &domain.User{
		ID:                   user.ID.String(),
		Name:                 user.Name,
		Email:                user.Email,
		Phone:                user.Phone,
		Role:                 user.Role,
		IsVerified:           user.IsVerified,
		PhoneVerified:        user.PhoneVerified,
		IsDonor:              user.IsDonor,
		AvailableForDonation: user.AvailableForDonation,
		LastDonationDate:     user.LastDonationDate,
		Latitude:             user.Latitude,
		Longitude:            user.Longitude,
		Preferences:          &preferences,
		CreatedAt:            user.CreatedAt,
	}
	if user.BloodType != nil {
		result.BloodType = *user.BloodType
	}
	return result
}
