package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

const bidColumns = `
	id,
	client_id,
	client_object_id,
	bid_type_id,
	status,
	description,
	created_by,
	current_responsible_user_id,
	assigned_at,
	planned_resolution_date,
	planned_duration_minutes,
	spent_time_hours,
	parent_id,
	amount,
	created_at`

func (r *BidRepository) GetBid(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	var bid model.Bid
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&bid).Error
	if err != nil {
		return nil, err
	}
	if bid.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &bid, nil
}

func (r *BidRepository) CreateBid(ctx context.Context, bid model.Bid) (*model.Bid, error) {
	var saved model.Bid
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO bids (
			client_id,
			client_object_id,
			bid_type_id,
			status,
			description,
			created_by,
			planned_resolution_date,
			planned_duration_minutes,
			spent_time_hours,
			parent_id,
			amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+bidColumns+`
	`,
		bid.ClientID,
		bid.ClientObjectID,
		bid.BidTypeID,
		bid.Status,
		bid.Description,
		bid.CreatedBy,
		bid.PlannedResolutionDate,
		bid.PlannedDurationMinutes,
		bid.SpentTimeHours,
		bid.ParentID,
		bid.Amount,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateBidStatus записывает новый статус и, при первом назначении,
// ответственного одним атомарным оператором.
func (r *BidRepository) UpdateBidStatus(
	ctx context.Context,
	id uuid.UUID,
	status string,
	responsible *uuid.UUID,
	assignedAt *time.Time,
) (*model.Bid, error) {
	var saved model.Bid
	err := r.db.WithContext(ctx).Raw(`
		UPDATE bids
		SET
			status = ?,
			current_responsible_user_id = COALESCE(?, current_responsible_user_id),
			assigned_at = COALESCE(?, assigned_at)
		WHERE id = ?
		RETURNING `+bidColumns+`
	`, status, responsible, assignedAt, id).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *BidRepository) CountBidsInStatuses(ctx context.Context, bidTypeID uuid.UUID, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM bids
		WHERE bid_type_id = ? AND status IN ?
	`, bidTypeID, names).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
