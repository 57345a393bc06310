// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Tasting
// model: one row per finalized guided-tasting session, owned by a scan.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
)

// CreateTasting persists a finalized TastingSession against scanID. The
// session's user input and AI profile are snapshotted as JSON blobs; the
// session id becomes the row's primary key.
func CreateTasting(ctx context.Context, db *gorm.DB, scanID, userID string, session *domain.TastingSession) (*domain.Tasting, error) {
	inputBlob, err := json.Marshal(session.UserInput)
	if err != nil {
		return nil, err
	}
	profileBlob, err := json.Marshal(session.AIProfile)
	if err != nil {
		return nil, err
	}
	t := &domain.Tasting{
		ID:          session.ID,
		ScanID:      scanID,
		UserID:      userID,
		InputJSON:   inputBlob,
		ProfileJSON: profileBlob,
		CreatedAt:   session.CreatedAt,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTasting fetches a tasting by ID, enforcing user ownership.
func GetTasting(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Tasting, error) {
	var t domain.Tasting
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTastings returns every tasting recorded for a scan, newest first
// (the UI surfaces only the most recent, but history is kept).
func ListTastings(ctx context.Context, db *gorm.DB, scanID, userID string) ([]domain.Tasting, error) {
	var out []domain.Tasting
	err := db.WithContext(ctx).
		Where("scan_id = ? AND user_id = ?", scanID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// LatestTasting returns the most recent tasting for a scan, or ErrNotFound.
func LatestTasting(ctx context.Context, db *gorm.DB, scanID, userID string) (*domain.Tasting, error) {
	var t domain.Tasting
	err := db.WithContext(ctx).
		Where("scan_id = ? AND user_id = ?", scanID, userID).
		Order("created_at desc").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TastingsStats returns aggregate metadata for a scan's tastings: the total
// number of rows and the greatest UpdatedAt among them. Used for conditional
// responses (ETag generation) in the HTTP layer.
func TastingsStats(ctx context.Context, db *gorm.DB, scanID, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Tasting{}).Where("scan_id = ? AND user_id = ?", scanID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
