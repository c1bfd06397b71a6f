package user

import (
	"context"

	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type (
	// DonorFilter narrows the donor pool for notification fan-out.
	DonorFilter struct {
		BloodTypes    []string
		ExcludeID     string
		AvailableOnly bool
	}

	UserRepository interface {
		CreateUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		GetUsersByIDs(ctx context.Context, ids []string) ([]*entities.User, error)
		UpdateUser(ctx context.Context, user *entities.User) error
		FindDonors(ctx context.Context, filter DonorFilter) ([]*entities.User, error)
		CheckEmailExist(ctx context.Context, email string) bool
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	var users []*entities.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindDonors returns registered donors whose blood type is in the filter set.
// Availability is a soft flag: NULL counts as available.
func (r *userRepository) FindDonors(ctx context.Context, filter DonorFilter) ([]*entities.User, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("is_donor = ?", true).
		Where("blood_type IN ?", filter.BloodTypes)

	if filter.ExcludeID != "" {
		query = query.Where("id != ?", filter.ExcludeID)
	}
	if filter.AvailableOnly {
		query = query.Where("available_for_donation IS NULL OR available_for_donation = ?", true)
	}

	var donors []*entities.User
	if err := query.Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

func (r *userRepository) CheckEmailExist(ctx context.Context, email string) bool {
	var count int64
	r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Count(&count)
	return count > 0
}
