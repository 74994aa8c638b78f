package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
)

// Repository manages persistence for orders, their idempotency keys and
// refund records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindByAccessToken(ctx context.Context, token string) (*models.Order, error)
	CodesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// TransitionStatus is a conditional update: it moves the order to target
	// only when its current status is one of from, reporting whether a row
	// changed. The condition and the write are one statement, so two
	// concurrent transitions on the same order cannot both win.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, target enums.OrderStatus, extra map[string]any) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error

	CreateIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID) error
	FindIdempotencyKey(ctx context.Context, key string) (*models.OrderIdempotencyKey, error)

	CreateRefund(ctx context.Context, refund *models.Refund) error
	HasRefund(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByAccessToken(ctx context.Context, token string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("access_token = ?", token).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CodesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	type row struct {
		ID   uuid.UUID
		Code string
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("id", "code").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	codes := make(map[uuid.UUID]string, len(rows))
	for _, record := range rows {
		codes[record.ID] = record.Code
	}
	return codes, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, target enums.OrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status_id": target}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status_id IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.OrderIdempotencyKey{
		Key:     key,
		OrderID: orderID,
	}).Error
}

func (r *repository) FindIdempotencyKey(ctx context.Context, key string) (*models.OrderIdempotencyKey, error) {
	var record models.OrderIdempotencyKey
	if err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) HasRefund(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
