// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Scan model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a scan is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateScan inserts a new Scan row for userID from a normalized WineData.
// The wine is stored as a JSON blob alongside denormalized listing columns;
// WineKey carries the derived label identity so repeat scans can be matched.
func CreateScan(ctx context.Context, db *gorm.DB, userID string, wine *domain.WineData) (*domain.Scan, error) {
	blob, err := json.Marshal(wine)
	if err != nil {
		return nil, err
	}
	s := &domain.Scan{
		ID:        uuid.NewString(),
		UserID:    userID,
		WineKey:   wine.ID(),
		Producer:  deref(wine.Producer),
		Region:    deref(wine.Region),
		Country:   deref(wine.Country),
		Vintage:   deref(wine.Vintage),
		Category:  string(wine.Category),
		WineJSON:  blob,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetScan fetches a single scan by ID, enforcing user ownership. Returns
// ErrNotFound when the row does not exist or belongs to another user.
func GetScan(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Scan, error) {
	var s domain.Scan
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountScans returns the total number of scans owned by userID.
func CountScans(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Scan{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListScansPage returns a paginated slice of scans for userID, ordered by
// creation time descending (most recent first). Use CountScans to obtain the
// total for pagination metadata.
func ListScansPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Scan, error) {
	var out []domain.Scan
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListScansByWineKey returns every scan of the same label identity for a
// user, newest first. Used to collapse repeat scans of one bottle.
func ListScansByWineKey(ctx context.Context, db *gorm.DB, userID, wineKey string) ([]domain.Scan, error) {
	var out []domain.Scan
	err := db.WithContext(ctx).
		Where("user_id = ? AND wine_key = ?", userID, wineKey).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// DeleteScan soft-deletes a scan owned by userID. Returns ErrNotFound when
// nothing matched.
func DeleteScan(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Scan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ScansStats returns aggregate metadata for a user's scans: the total number
// of rows and the maximum UpdatedAt timestamp among those rows. Used for
// conditional responses (ETag generation) in the HTTP layer. When the user
// has no scans, the returned count is 0 and maxUpdatedAt is nil.
func ScansStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Scan{}).Where("user_id = ?", userID)

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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
