package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"
)

var (
	ErrInvalidCredentials = Unauthorized("invalid username or password")
	ErrUserInactive       = Unauthorized("user account is inactive")
	ErrSessionReplaced    = Unauthorized("session expired (logged in on another device)")
	ErrWrongPassword      = InvalidInput("current password is incorrect")
)

const minPasswordLength = 6

type AuthService interface {
	Login(username, password string) (*LoginResponse, error)
	Refresh(userID uint) (*LoginResponse, error)
	Logout(userID uint) error
	Me(userID uint) (*TokenValidationResponse, error)
	ChangePassword(userID uint, currentPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`       // Direct role object for the SPA store
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(username, password string) (*LoginResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, StoreFailure(err)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// Refresh issues a fresh token for an already authenticated user. The
// previous token stops validating.
func (s *authService) Refresh(userID uint) (*LoginResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("user not found")
		}
		return nil, StoreFailure(err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *model.User) (*LoginResponse, error) {
	// Single session: a new token version invalidates every older token
	newTokenVersion := uuid.New().String()
	if err := s.userRepo.RecordLogin(user.ID, newTokenVersion); err != nil {
		return nil, StoreFailure(err)
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), newTokenVersion)
	if err != nil {
		zap.L().Error("token signing failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, StoreFailure(err)
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

// Logout rotates the token version so the current token stops validating.
func (s *authService) Logout(userID uint) error {
	if err := s.userRepo.UpdateTokenVersion(userID, uuid.New().String()); err != nil {
		return StoreFailure(err)
	}
	return nil
}

func (s *authService) Me(userID uint) (*TokenValidationResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return InvalidInput("new password must be at least %d characters", minPasswordLength)
	}

	// 1. Find user
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return storeError(err, "user")
	}

	// 2. Verify old password
	if !user.CheckPassword(currentPassword) {
		return ErrWrongPassword
	}

	// 3. Hash and store the new password
	if err := user.SetPassword(newPassword); err != nil {
		return StoreFailure(err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return StoreFailure(err)
	}
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	// 1. Validate JWT token
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, Unauthorized("%s", err.Error())
	}

	// 2. Find user by ID from token claims
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("user not found")
		}
		return nil, StoreFailure(err)
	}

	// 3. Check if user is still active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Check against DB for strict session (TokenVersion)
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}
