package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/persistence/datascope"
	"github.com/upigw/backend/internal/infrastructure/persistence/models"
)

// GormUserRepository implements identity.UserRepository using GORM.
// Every write re-validates the role/parent hierarchy against the parent row
// loaded inside the same transaction, so a concurrent parent change cannot
// slip an invalid tree into the database.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create persists a new account
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.validateHierarchyTx(tx, user); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.UserModel{}).
			Where("username = ? AND is_active = ?", user.Username, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrDuplicateHandle
		}

		return tx.Create(models.UserModelFromDomain(user)).Error
	})
}

// Update persists changes to an existing account
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.validateHierarchyTx(tx, user); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.UserModel{}).
			Where("username = ? AND is_active = ? AND id <> ?", user.Username, true, user.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrDuplicateHandle
		}

		model := models.UserModelFromDomain(user)
		result := tx.Model(&models.UserModel{}).
			Where("id = ?", user.ID).
			Select("*").
			Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// validateHierarchyTx loads the parent inside the transaction and runs the
// domain hierarchy check against the live row.
func (r *GormUserRepository) validateHierarchyTx(tx *gorm.DB, user *identity.User) error {
	var parent *identity.User
	if user.ParentID != nil {
		var model models.UserModel
		err := tx.Where("id = ? AND is_active = ?", *user.ParentID, true).First(&model).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			parent = model.ToDomain()
		}
	}
	return user.ValidateHierarchy(parent)
}

// FindByID loads an account by primary key, soft-deleted rows included
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByID loads an account only if it is active
func (r *GormUserRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsername loads an active account by its normalized handle
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(username)), true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a page of accounts visible inside the filter's scope
func (r *GormUserRepository) List(ctx context.Context, filter identity.UserFilter) (shared.Paginated[*identity.User], error) {
	applyFilter := func(db *gorm.DB) *gorm.DB {
		db = datascope.ApplyUserScope(db, filter.Scope)
		if filter.Role != nil {
			db = db.Where("role = ?", *filter.Role)
		}
		if filter.ParentID != nil {
			db = db.Where("parent_id = ?", *filter.ParentID)
		}
		if filter.Search != "" {
			db = db.Where("username ILIKE ?", "%"+filter.Search+"%")
		}
		return db
	}

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.UserModel{})).
		Count(&total).Error; err != nil {
		return shared.Paginated[*identity.User]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, UserSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var userModels []models.UserModel
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.UserModel{})).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&userModels).Error; err != nil {
		return shared.Paginated[*identity.User]{}, err
	}

	users := make([]*identity.User, len(userModels))
	for i := range userModels {
		users[i] = userModels[i].ToDomain()
	}
	return shared.NewPaginated(users, total, filter.Page, filter.Limit()), nil
}

// CountMembers returns the number of active members under a merchant
func (r *GormUserRepository) CountMembers(ctx context.Context, merchantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("parent_id = ? AND role = ? AND is_active = ?", merchantID, identity.RoleMember, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByUsername reports whether an active account holds the handle
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("username = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(username)), true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormUserRepository implements identity.UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
