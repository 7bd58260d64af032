package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUnknownRole = errors.New("unknown role")

// ProfileService maintains profile rows. Writing is an administration
// concern; reading for authorization goes through the resolver.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Upsert creates or updates the profile for a user. Roles outside the
// closed enumeration are rejected so every stored role is one the access
// policy can evaluate.
func (s *ProfileService) Upsert(ctx context.Context, profile *models.Profile) error {
	if profile.UserID == uuid.Nil {
		return errors.New("user id is required")
	}
	if profile.Role != "" && access.ParseRole(profile.Role) == access.RoleUnknown {
		return fmt.Errorf("%w: %q", ErrUnknownRole, profile.Role)
	}

	var existing models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", profile.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if profile.ID == uuid.Nil {
			profile.ID = uuid.New()
		}
		return s.db.WithContext(ctx).Create(profile).Error
	}
	if err != nil {
		return err
	}

	profile.ID = existing.ID
	return s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"first_name":          profile.FirstName,
		"last_name":           profile.LastName,
		"role":                profile.Role,
		"work_area":           profile.WorkArea,
		"email":               profile.Email,
		"cell_phone_number":   profile.CellPhoneNumber,
		"profile_picture_url": profile.ProfilePictureURL,
	}).Error
}

func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]models.Profile, int64, error) {
	var profiles []models.Profile
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.db.WithContext(ctx).Order("last_name, first_name").
		Limit(limit).Offset(offset).Find(&profiles).Error
	return profiles, total, err
}
