package service

import (
	"errors"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultAdminUsername = "admin"

type UserService interface {
	CreateUser(req *CreateUserRequest, creator string) (*model.User, error)
	UpdateUser(userID uint, req *UpdateUserRequest, updater string) (*model.User, error)
	DeleteUser(userID uint) error
	UpdateUserPrivileges(userID uint, privilegeCodes []string, updater string) (*model.User, error)
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uint) (*model.UserResponse, error)
	GetAllRoles() ([]model.Role, error)
	GetAllPrivileges() ([]model.Privilege, error)
	SeedDefaults(adminPassword string) error
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string  `json:"full_name" validate:"required"`
	RoleID   uint    `json:"role_id" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, creator string) (*model.User, error) {
	// 1. Validate request
	req.Username = strings.TrimSpace(req.Username)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}

	// 2. Username and email must be free
	if existing, _ := s.userRepo.FindByUsername(req.Username); existing != nil {
		return nil, Conflict("username already exists")
	}
	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, Conflict("email already exists")
	}

	// 3. Validate role exists
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, storeError(err, "role")
	}

	// 4. Create user
	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &req.RoleID,
		IsActive: true,
	}
	user.CreatedBy = creator
	user.UpdatedBy = creator

	// 5. Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, StoreFailure(err)
	}

	// 6. Auto-assign privileges based on role
	user.Privileges = role.Privileges

	// 7. Save to database
	if err := s.userRepo.Create(user); err != nil {
		return nil, storeError(err, "user")
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *userService) UpdateUser(userID uint, req *UpdateUserRequest, updater string) (*model.User, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}

	// 2. Find existing user
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	// 3. Check if email is being changed and already exists
	if req.Email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
			return nil, Conflict("email already exists")
		}
	}

	// 4. Validate role exists
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, storeError(err, "role")
	}

	// 5. Update user fields
	user.Email = req.Email
	user.FullName = req.FullName
	user.RoleID = &req.RoleID
	user.Role = nil
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updater

	// 6. Update password if provided
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, StoreFailure(err)
		}
	}

	// 7. Privileges follow the role
	user.Privileges = role.Privileges

	if err := s.userRepo.Update(user); err != nil {
		return nil, storeError(err, "user")
	}
	return s.userRepo.FindByID(userID)
}

// DeleteUser deactivates the account; the row stays for the activity log.
func (s *userService) DeleteUser(userID uint) error {
	return storeError(s.userRepo.Deactivate(userID), "user")
}

func (s *userService) UpdateUserPrivileges(userID uint, privilegeCodes []string, updater string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	privileges, err := s.privilegeRepo.FindByCodes(privilegeCodes)
	if err != nil {
		return nil, StoreFailure(err)
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, InvalidInput("unknown privilege code in %v", privilegeCodes)
	}

	user.Privileges = privileges
	user.Role = nil
	user.UpdatedBy = updater
	if err := s.userRepo.Update(user); err != nil {
		return nil, StoreFailure(err)
	}
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, StoreFailure(err)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uint) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetAllRoles() ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll()
	if err != nil {
		return nil, StoreFailure(err)
	}
	return roles, nil
}

func (s *userService) GetAllPrivileges() ([]model.Privilege, error) {
	privileges, err := s.privilegeRepo.FindAll()
	if err != nil {
		return nil, StoreFailure(err)
	}
	return privileges, nil
}

// SeedDefaults installs the default privileges and roles, and an admin
// account when none exists.
func (s *userService) SeedDefaults(adminPassword string) error {
	if err := s.privilegeRepo.SeedDefaults(); err != nil {
		return err
	}
	all, err := s.privilegeRepo.FindAll()
	if err != nil {
		return err
	}
	if err := s.roleRepo.SeedDefaults(all); err != nil {
		return err
	}

	_, err = s.userRepo.FindByUsername(defaultAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	adminRole, err := s.roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:   defaultAdminUsername,
		Email:      "admin@inventory.local",
		FullName:   "Administrator",
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: adminRole.Privileges,
	}
	admin.CreatedBy = "system"
	if err := admin.SetPassword(adminPassword); err != nil {
		return err
	}
	if err := s.userRepo.Create(admin); err != nil {
		return err
	}
	zap.L().Info("seeded default admin account", zap.String("username", defaultAdminUsername))
	return nil
}
