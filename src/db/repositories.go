package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ers/src/core/ports"
	"ers/src/models"
	"ers/src/types"
)

// Repositories bundles the GORM-backed implementations of the engine's
// storage ports.
type Repositories struct {
	Events    ports.EventRepository
	Regs      ports.RegistrationRepository
	Waitlist  ports.WaitlistRepository
	Transfers ports.TransferRepository
}

func NewRepositories(conn *gorm.DB) *Repositories {
	return &Repositories{
		Events:    &eventRepository{conn},
		Regs:      &registrationRepository{conn},
		Waitlist:  &waitlistRepository{conn},
		Transfers: &transferRepository{conn},
	}
}

type eventRepository struct {
	conn *gorm.DB
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.conn.WithContext(ctx).
		Where(&models.Event{ID: id}).
		First(&event).
		Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ReserveSeat relies on a conditional UPDATE so the counter is also
// race-safe at the storage level, not just behind the in-process lock.
func (r *eventRepository) ReserveSeat(ctx context.Context, id uint) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND seats_taken < capacity", id).
		UpdateColumn("seats_taken", gorm.Expr("seats_taken + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepository) ReleaseSeat(ctx context.Context, id uint) error {
	return r.conn.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND seats_taken > 0", id).
		UpdateColumn("seats_taken", gorm.Expr("seats_taken - 1")).
		Error
}

type registrationRepository struct {
	conn *gorm.DB
}

func (r *registrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	return r.conn.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepository) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.conn.WithContext(ctx).
		Where(&models.Registration{ID: id}).
		First(&reg).
		Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) GetByTicketCode(ctx context.Context, code string) (*models.Registration, error) {
	var reg models.Registration
	err := r.conn.WithContext(ctx).
		Where(&models.Registration{TicketCode: code}).
		First(&reg).
		Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

var activeStatuses = []types.RegistrationStatus{
	types.REGISTRATION_PENDING,
	types.REGISTRATION_CONFIRMED,
	types.REGISTRATION_WAITLISTED,
}

func (r *registrationRepository) GetActive(ctx context.Context, eventID, userID uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.conn.WithContext(ctx).
		Where("event_id = ? AND user_id = ? AND status IN ?", eventID, userID, activeStatuses).
		First(&reg).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.conn.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND expires_at < ?",
			types.REGISTRATION_PENDING, types.PAYMENT_PENDING, now).
		Order("expires_at asc").
		Limit(limit).
		Find(&regs).
		Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) CompareAndSwap(ctx context.Context, id uint, from []types.RegistrationStatus, updates map[string]any) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Registration{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type waitlistRepository struct {
	conn *gorm.DB
}

func (r *waitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.conn.WithContext(ctx).Create(entry).Error
}

func (r *waitlistRepository) GetQueued(ctx context.Context, eventID, userID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.conn.WithContext(ctx).
		Where(&models.WaitlistEntry{EventID: eventID, UserID: userID, Status: types.WAITLIST_QUEUED}).
		First(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) NextQueued(ctx context.Context, eventID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.conn.WithContext(ctx).
		Where(&models.WaitlistEntry{EventID: eventID, Status: types.WAITLIST_QUEUED}).
		Order("enqueued_at asc, id asc").
		First(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) PositionOf(ctx context.Context, eventID, userID uint) (int, error) {
	own, err := r.GetQueued(ctx, eventID, userID)
	if err != nil {
		return 0, err
	}
	if own == nil {
		return 0, nil
	}
	var ahead int64
	err = r.conn.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("event_id = ? AND status = ?", eventID, types.WAITLIST_QUEUED).
		Where("enqueued_at < ? OR (enqueued_at = ? AND id <= ?)", own.EnqueuedAt, own.EnqueuedAt, own.ID).
		Count(&ahead).
		Error
	if err != nil {
		return 0, err
	}
	return int(ahead), nil
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, id uint, from, to types.WaitlistStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.conn.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type transferRepository struct {
	conn *gorm.DB
}

func (r *transferRepository) Create(ctx context.Context, req *models.TransferRequest) error {
	return r.conn.WithContext(ctx).Create(req).Error
}

func (r *transferRepository) GetByID(ctx context.Context, id uint) (*models.TransferRequest, error) {
	var req models.TransferRequest
	err := r.conn.WithContext(ctx).
		Where(&models.TransferRequest{ID: id}).
		First(&req).
		Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *transferRepository) CompareAndSwap(ctx context.Context, id uint, from, to types.TransferStatus) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.TransferRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
