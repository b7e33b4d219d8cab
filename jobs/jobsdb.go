package jobsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	ExecutingState = "executing"
	SucceededState = "succeeded"
	FailedState    = "failed"
)

// SyncRunT is one invocation of the sync job.
type SyncRunT struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"size:36;uniqueIndex"`
	State      string `gorm:"size:16"`
	Entities   string `gorm:"size:255"`
	Error      string `gorm:"type:text"`
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (SyncRunT) TableName() string {
	return "sync_runs"
}

// PageStatusT is written once per page pushed to the destination.
type PageStatusT struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"size:36;index"`
	Entity     string `gorm:"size:32"`
	Page       int
	Rows       int
	StatusCode int
	Response   string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (PageStatusT) TableName() string {
	return "sync_page_status"
}

// HandleT keeps an audit log of sync runs. A HandleT without a database does nothing,
// the log is never read back by the sync.
type HandleT struct {
	db *gorm.DB
}

func (jd *HandleT) Setup(dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return fmt.Errorf("open jobs db: %w", err)
	}
	if err := db.AutoMigrate(&SyncRunT{}, &PageStatusT{}); err != nil {
		return fmt.Errorf("migrate jobs db: %w", err)
	}
	jd.db = db
	return nil
}

// SetupWithDB uses an already opened database, the schema is expected to exist.
func (jd *HandleT) SetupWithDB(db *gorm.DB) {
	jd.db = db
}

func (jd *HandleT) Enabled() bool {
	return jd != nil && jd.db != nil
}

func (jd *HandleT) StartRun(ctx context.Context, runID uuid.UUID, entities string) error {
	if !jd.Enabled() {
		return nil
	}
	run := SyncRunT{
		RunID:     runID.String(),
		State:     ExecutingState,
		Entities:  entities,
		StartedAt: time.Now().UTC(),
	}
	return jd.db.WithContext(ctx).Create(&run).Error
}

func (jd *HandleT) RecordPage(ctx context.Context, runID uuid.UUID, entity string, page, rows, statusCode int, response []byte) error {
	if !jd.Enabled() {
		return nil
	}
	status := PageStatusT{
		RunID:      runID.String(),
		Entity:     entity,
		Page:       page,
		Rows:       rows,
		StatusCode: statusCode,
		Response:   string(response),
	}
	return jd.db.WithContext(ctx).Create(&status).Error
}

func (jd *HandleT) FinishRun(ctx context.Context, runID uuid.UUID, runErr error) error {
	if !jd.Enabled() {
		return nil
	}
	updates := map[string]interface{}{
		"state":       SucceededState,
		"finished_at": time.Now().UTC(),
	}
	if runErr != nil {
		updates["state"] = FailedState
		updates["error"] = runErr.Error()
	}
	return jd.db.WithContext(ctx).Model(&SyncRunT{}).Where("run_id = ?", runID.String()).Updates(updates).Error
}

func (jd *HandleT) Close() error {
	if !jd.Enabled() {
		return nil
	}
	sqlDB, err := jd.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
