package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/utils"
)

// UserService manages accounts and the optional profile extension.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// MeView is what the "me" endpoints expose. Level is an integer on every
// surface and null when the user has no profile.
type MeView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Level    *int   `json:"level"`
}

// NewUser is the input for account creation.
type NewUser struct {
	Username    string `json:"username" validate:"required,max=150"`
	Password    string `json:"password" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Me returns the caller's identity with profile fallbacks.
func (s *UserService) Me(ctx context.Context, actor Actor) (MeView, error) {
	if err := RequireIdentity(actor); err != nil {
		return MeView{}, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&user, actor.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MeView{}, ErrUnauthenticated
	}
	if err != nil {
		return MeView{}, fmt.Errorf("load user: %w", err)
	}

	view := MeView{Username: user.Username, Email: user.Email}
	if user.Profile != nil {
		view.Email = user.Profile.Email
		view.Level = user.Profile.Level
	}
	return view, nil
}

// CreateUser stores a new account with a bcrypt password hash.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, fieldError("username", "a user with that username already exists")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsStaff:      in.IsStaff || in.IsSuperuser,
		IsSuperuser:  in.IsSuperuser,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	utils.Sugar.Infow("user created", "user_id", user.ID, "username", user.Username, "staff", user.IsStaff)
	return user, nil
}

// GetByUsername loads a user by its unique username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// SetLevel sets the profile level of the given users, creating profiles
// where missing. Staff only. Returns the number of profiles written.
func (s *UserService) SetLevel(ctx context.Context, actor Actor, userIDs []uint, level int) (int, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return 0, err
	}
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	userIDs = utils.DedupeIDs(userIDs)
	if len(userIDs) == 0 {
		return 0, fieldError("ids", "this field is required")
	}

	written := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Preload("Profile").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return err
		}
		for i := range users {
			u := &users[i]
			lvl := level
			if u.Profile == nil {
				profile := models.Profile{UserID: u.ID, Email: u.Email, Level: &lvl}
				if err := tx.Create(&profile).Error; err != nil {
					return err
				}
			} else if err := tx.Model(u.Profile).Update("level", lvl).Error; err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("set level: %w", err)
	}
	utils.Sugar.Infow("profile levels updated", "by", actor.UserID, "level", level, "count", written)
	return written, nil
}

// checkLevel keeps levels within the GraphQL Int range so both surfaces
// report the same number.
func checkLevel(level int) error {
	switch {
	case level < 0:
		return fieldError("level", "ensure this value is greater than or equal to 0")
	case level > math.MaxInt32:
		return fieldError("level", fmt.Sprintf("ensure this value is less than or equal to %d", math.MaxInt32))
	}
	return nil
}

type seedFile struct {
	Users []struct {
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		Email     string `yaml:"email"`
		Staff     bool   `yaml:"staff"`
		Superuser bool   `yaml:"superuser"`
		Level     *int   `yaml:"level"`
	} `yaml:"users"`
}

// SeedFromFile creates the users listed in a YAML fixture, skipping existing
// usernames. Returns how many users were created.
func (s *UserService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	created := 0
	for _, u := range sf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		if u.Level != nil {
			if err := checkLevel(*u.Level); err != nil {
				return created, fmt.Errorf("seed %s: %w", u.Username, err)
			}
		}
		if _, err := s.GetByUsername(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		user, err := s.CreateUser(ctx, NewUser{
			Username:    u.Username,
			Password:    u.Password,
			Email:       u.Email,
			IsStaff:     u.Staff,
			IsSuperuser: u.Superuser,
		})
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", u.Username, err)
		}
		if u.Level != nil {
			profile := models.Profile{UserID: user.ID, Email: user.Email, Level: u.Level}
			if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
				return created, fmt.Errorf("seed profile %s: %w", u.Username, err)
			}
		}
		created++
	}
	return created, nil
}
