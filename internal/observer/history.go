package observer

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"gorm.io/gorm"
)

// CycleRecord is the GORM model for the update_cycles table
type CycleRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Outcome    string    `gorm:"column:outcome;size:16;index"`
	Error      string    `gorm:"column:error;type:text"`
	StartedAt  time.Time `gorm:"column:started_at;index"`
	DurationMS int64     `gorm:"column:duration_ms"`
}

// TableName specifies the table name for GORM
func (CycleRecord) TableName() string {
	return "update_cycles"
}

// HistoryObserver appends one row per cycle to MySQL
type HistoryObserver struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewHistoryObserver(db *gorm.DB, log *logger.Logger) *HistoryObserver {
	return &HistoryObserver{db: db, logger: log.WithComponent("HistoryObserver")}
}

// Migrate creates or updates the update_cycles table
func (o *HistoryObserver) Migrate() error {
	if err := o.db.AutoMigrate(&CycleRecord{}); err != nil {
		return fmt.Errorf("failed to migrate update_cycles table: %w", err)
	}
	return nil
}

func (o *HistoryObserver) OnCycleComplete(ctx context.Context, r geodb.CycleResult) {
	e := NewEvent(r)
	record := CycleRecord{
		Outcome:    e.Outcome,
		Error:      e.Error,
		StartedAt:  e.StartedAt,
		DurationMS: e.DurationMS,
	}
	if err := o.db.WithContext(ctx).Create(&record).Error; err != nil {
		o.logger.Warn().Err(err).Msg("Failed to record update cycle")
	}
}

// Recent returns up to limit cycles, newest first
func (o *HistoryObserver) Recent(ctx context.Context, limit int) ([]CycleRecord, error) {
	var records []CycleRecord
	err := o.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read update history: %w", err)
	}
	return records, nil
}
