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

// BidTypeRepository persists bid types with their status lists and
// transition graphs as ordered JSONB documents, not normalized rows.
type BidTypeRepository struct {
	db *gorm.DB
}

func NewBidTypeRepository(db *gorm.DB) *BidTypeRepository {
	return &BidTypeRepository{db: db}
}

type bidTypeRow struct {
	ID                     uuid.UUID
	Name                   string
	Description            string
	PlannedReactionMinutes int
	PlannedDurationMinutes int
	Statuses               []byte
	Transitions            []byte
	CreatedAt              time.Time
}

func (r *BidTypeRepository) GetBidType(ctx context.Context, id uuid.UUID) (*model.BidType, error) {
	var row bidTypeRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			description,
			planned_reaction_minutes,
			planned_duration_minutes,
			statuses,
			transitions,
			created_at
		FROM bid_types
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return rowToBidType(row)
}

func (r *BidTypeRepository) CreateBidType(ctx context.Context, bidType model.BidType) (*model.BidType, error) {
	statuses, transitions, err := marshalDefinition(bidType)
	if err != nil {
		return nil, err
	}

	var row bidTypeRow
	err = r.db.WithContext(ctx).Raw(`
		INSERT INTO bid_types (
			name,
			description,
			planned_reaction_minutes,
			planned_duration_minutes,
			statuses,
			transitions
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING
			id,
			name,
			description,
			planned_reaction_minutes,
			planned_duration_minutes,
			statuses,
			transitions,
			created_at
	`,
		bidType.Name,
		bidType.Description,
		bidType.PlannedReactionMinutes,
		bidType.PlannedDurationMinutes,
		statuses,
		transitions,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return rowToBidType(row)
}

func (r *BidTypeRepository) UpdateBidType(ctx context.Context, bidType model.BidType) (*model.BidType, error) {
	statuses, transitions, err := marshalDefinition(bidType)
	if err != nil {
		return nil, err
	}

	var row bidTypeRow
	err = r.db.WithContext(ctx).Raw(`
		UPDATE bid_types
		SET
			name = ?,
			description = ?,
			planned_reaction_minutes = ?,
			planned_duration_minutes = ?,
			statuses = ?,
			transitions = ?
		WHERE id = ?
		RETURNING
			id,
			name,
			description,
			planned_reaction_minutes,
			planned_duration_minutes,
			statuses,
			transitions,
			created_at
	`,
		bidType.Name,
		bidType.Description,
		bidType.PlannedReactionMinutes,
		bidType.PlannedDurationMinutes,
		statuses,
		transitions,
		bidType.ID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return rowToBidType(row)
}

func marshalDefinition(bidType model.BidType) (statuses, transitions []byte, err error) {
	statuses, err = json.Marshal(bidType.Statuses)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal statuses: %w", err)
	}
	transitions, err = json.Marshal(bidType.Transitions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal transitions: %w", err)
	}
	return statuses, transitions, nil
}

func rowToBidType(row bidTypeRow) (*model.BidType, error) {
	bidType := model.BidType{
		ID:                     row.ID,
		Name:                   row.Name,
		Description:            row.Description,
		PlannedReactionMinutes: row.PlannedReactionMinutes,
		PlannedDurationMinutes: row.PlannedDurationMinutes,
		CreatedAt:              row.CreatedAt,
	}
	if len(row.Statuses) > 0 {
		if err := json.Unmarshal(row.Statuses, &bidType.Statuses); err != nil {
			return nil, fmt.Errorf("unmarshal statuses: %w", err)
		}
	}
	if len(row.Transitions) > 0 {
		if err := json.Unmarshal(row.Transitions, &bidType.Transitions); err != nil {
			return nil, fmt.Errorf("unmarshal transitions: %w", err)
		}
	}
	return &bidType, nil
}
