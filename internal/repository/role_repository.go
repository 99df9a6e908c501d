package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

// RoleRepository хранит роли; права лежат в JSONB-документе.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

type roleRow struct {
	ID          uuid.UUID
	Name        string
	Description string
	Permissions []byte
	CreatedAt   time.Time
}

func (r *RoleRepository) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var row roleRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, description, permissions, created_at
		FROM roles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return rowToRole(row)
}

func (r *RoleRepository) CreateRole(ctx context.Context, role model.Role) (*model.Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	var row roleRow
	err = r.db.WithContext(ctx).Raw(`
		INSERT INTO roles (name, description, permissions)
		VALUES (?, ?, ?)
		RETURNING id, name, description, permissions, created_at
	`, role.Name, role.Description, perms).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return rowToRole(row)
}

func (r *RoleRepository) UpdateRole(ctx context.Context, role model.Role) (*model.Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	var row roleRow
	err = r.db.WithContext(ctx).Raw(`
		UPDATE roles
		SET name = ?, description = ?, permissions = ?
		WHERE id = ?
		RETURNING id, name, description, permissions, created_at
	`, role.Name, role.Description, perms, role.ID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return rowToRole(row)
}

func (r *RoleRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM roles WHERE id = ?
	`, id).Error
}

func (r *RoleRepository) CountUsersWithRole(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM users WHERE role_id = ?
	`, id).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func rowToRole(row roleRow) (*model.Role, error) {
	role := model.Role{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Permissions: map[string]bool{},
		CreatedAt:   row.CreatedAt,
	}
	if len(row.Permissions) > 0 {
		if err := json.Unmarshal(row.Permissions, &role.Permissions); err != nil {
			return nil, fmt.Errorf("unmarshal permissions: %w", err)
		}
	}
	return &role, nil
}
