package services

import (
	"errors"
	"fmt"
	"time"

	"quizadmin/config"
	"quizadmin/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityClaims is what the identity provider asserts about the caller.
// Subject is the provider's stable user id; the rest are profile fields.
type IdentityClaims struct {
	Subject  string
	Email    string
	Name     string
	ImageURL string
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// SyncUser reconciles an identity claim into the users table: refresh the
// profile of an existing user, or create a new one. Returns (nil, nil) when
// no claim is present. Every successful sync advances LastLoginAt.
func (s *UserService) SyncUser(claims *IdentityClaims) (*models.User, error) {
	if claims == nil {
		return nil, nil
	}

	user, err := s.GetByClerkID(claims.Subject)
	if err != nil {
		return nil, err
	}

	if user != nil {
		if claims.Email != "" {
			user.Email = claims.Email
		}
		if claims.Name != "" {
			user.Name = &claims.Name
		}
		if claims.ImageURL != "" {
			user.ImageURL = &claims.ImageURL
		}
		user.LastLoginAt = time.Now()
		if err := s.db.Save(user).Error; err != nil {
			return nil, err
		}
		return user, nil
	}

	return s.createFromClaims(claims, nil)
}

// createFromClaims inserts a new user, deciding the role atomically: the
// transaction that manages to insert the singleton bootstrap row belongs to
// the first user ever and gets admin, everyone else gets user.
func (s *UserService) createFromClaims(claims *IdentityClaims, pushToken *string) (*models.User, error) {
	log := config.Logger()

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		role := models.RoleUser
		boot := models.SystemBootstrap{ID: 1, AdminUserID: claims.Subject}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&boot)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			role = models.RoleAdmin
		}

		now := time.Now()
		user = models.User{
			ClerkID:     claims.Subject,
			Email:       claims.Email,
			Role:        role,
			PushToken:   pushToken,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		if claims.Name != "" {
			user.Name = &claims.Name
		}
		if claims.ImageURL != "" {
			user.ImageURL = &claims.ImageURL
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	log.WithField("clerk_id", user.ClerkID).WithField("role", user.Role).Info("Created user")
	return &user, nil
}

// UpdatePushToken stores the delivery token for the caller. Token
// registration can race the first full sync, so a missing user row is
// created on the spot with minimal profile data.
func (s *UserService) UpdatePushToken(claims *IdentityClaims, token string) error {
	if claims == nil {
		return errors.New("not authenticated")
	}

	user, err := s.GetByClerkID(claims.Subject)
	if err != nil {
		return err
	}

	if user == nil {
		minimal := *claims
		if minimal.Name == "" {
			minimal.Name = "User"
		}
		_, err := s.createFromClaims(&minimal, &token)
		return err
	}

	return s.db.Model(user).Update("push_token", token).Error
}

func (s *UserService) GetByClerkID(clerkID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "clerk_id = ?", clerkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ListAll() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *UserService) ListByRole(role string) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("role = ?", role).Find(&users).Error
	return users, err
}

// PushableByRole returns the users of a role that have a delivery token, i.e.
// the recipient set for a role-scoped push broadcast.
func (s *UserService) PushableByRole(role string) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Where("role = ? AND push_token IS NOT NULL AND push_token <> ''", role).
		Find(&users).Error
	return users, err
}

func (s *UserService) UpdateRole(userID uint, role string) error {
	if role != models.RoleAdmin && role != models.RoleUser {
		return fmt.Errorf("invalid role %q", role)
	}
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserService) IsAdmin(claims *IdentityClaims) (bool, error) {
	if claims == nil {
		return false, nil
	}
	user, err := s.GetByClerkID(claims.Subject)
	if err != nil || user == nil {
		return false, err
	}
	return user.Role == models.RoleAdmin, nil
}

type UserStats struct {
	Total  int64 `json:"total"`
	Admins int64 `json:"admins"`
	Users  int64 `json:"users"`
}

func (s *UserService) Stats() (*UserStats, error) {
	var stats UserStats
	if err := s.db.Model(&models.User{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&stats.Admins).Error; err != nil {
		return nil, err
	}
	stats.Users = stats.Total - stats.Admins
	return &stats, nil
}

// DeleteAccount removes the caller's user row and all their notifications,
// returning how many notifications were deleted.
func (s *UserService) DeleteAccount(claims *IdentityClaims) (int64, error) {
	if claims == nil {
		return 0, errors.New("not authenticated")
	}

	user, err := s.GetByClerkID(claims.Subject)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrNotFound
	}

	var deleted int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", claims.Subject).Delete(&models.Notification{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Delete(user).Error
	})
	if err != nil {
		return 0, err
	}

	config.Logger().WithField("clerk_id", claims.Subject).
		WithField("deleted_notifications", deleted).Info("Deleted user account")
	return deleted, nil
}
