package repository

import (
	"errors"

	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	Create(role *model.Role) error
	SeedDefaults(all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(role *model.Role) error {
	return r.db.Create(role).Error
}

// SeedDefaults creates the missing default roles and grants privileges to
// roles that have none yet: ADMIN gets everything, USER everything but the
// admin-only set.
func (r *roleRepo) SeedDefaults(all []model.Privilege) error {
	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		var existing model.Role
		err := r.db.Preload("Privileges").Where("code = ?", role.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&role).Error; err != nil {
				return err
			}
			existing = role
		} else if err != nil {
			return err
		}

		if len(existing.Privileges) > 0 {
			continue
		}
		grant := make([]model.Privilege, 0, len(all))
		for _, p := range all {
			if existing.Code == model.RoleAdmin || !model.IsAdminOnly(p.Code) {
				grant = append(grant, p)
			}
		}
		if err := r.db.Model(&existing).Association("Privileges").Replace(grant); err != nil {
			return err
		}
	}
	return nil
}
