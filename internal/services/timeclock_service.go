package services

import (
	"context"
	"errors"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("no open time entry")
)

// TimeClockService tracks worker hours: one open entry per user at a
// time.
type TimeClockService struct {
	db *gorm.DB
}

func NewTimeClockService(db *gorm.DB) *TimeClockService {
	return &TimeClockService{db: db}
}

func (s *TimeClockService) ClockIn(ctx context.Context, userID uuid.UUID, jobID *uuid.UUID) (*models.TimeEntry, error) {
	var open models.TimeEntry
	err := s.db.WithContext(ctx).Where("user_id = ? AND clock_out IS NULL", userID).First(&open).Error
	if err == nil {
		return nil, ErrAlreadyClockedIn
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entry := models.TimeEntry{
		ID:      uuid.New(),
		UserID:  userID,
		JobID:   jobID,
		ClockIn: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *TimeClockService) ClockOut(ctx context.Context, userID uuid.UUID) (*models.TimeEntry, error) {
	var open models.TimeEntry
	err := s.db.WithContext(ctx).Where("user_id = ? AND clock_out IS NULL", userID).First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotClockedIn
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&open).Update("clock_out", now).Error; err != nil {
		return nil, err
	}
	open.ClockOut = &now
	return &open, nil
}

// Entries lists a user's time entries in a date range, newest first.
func (s *TimeClockService) Entries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		q = q.Where("clock_in >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("clock_in < ?", to)
	}
	err := q.Order("clock_in DESC").Find(&entries).Error
	return entries, err
}
