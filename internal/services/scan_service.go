// Package services – ScanService
//
// This file implements ScanService, the application-level component that owns
// the lifecycle of label scans. It validates the uploaded image, bounds and
// re-encodes it for transmission, invokes the extraction client, and persists
// the normalized WineData as a Scan record. Idempotent retries are supported
// via the Idempotency-Key mechanism so a network retry never pays for a
// second extraction call.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include user identifiers and pagination parameters where applicable.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/imaging"
	"github.com/vinobytes/somm-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// scanScope is the idempotency scope under which scan creations are recorded.
const scanScope = "scans"

// Extractor is the narrow extraction contract consumed by ScanService.
// The production implementation is somm.Client.
type Extractor interface {
	// ExtractWineInfo turns a prepared JPEG into normalized WineData.
	ExtractWineInfo(ctx context.Context, jpeg []byte) (*domain.WineData, error)
}

// ScanService coordinates image preparation, extraction, and persistence.
type ScanService struct {
	DB        *gorm.DB
	Extractor Extractor

	// Upload bounds
	MaxImageEdge int
	JPEGQuality  int

	// IdempotencyTTL is how long a scan-creation Idempotency-Key stays valid.
	IdempotencyTTL time.Duration
}

// Create runs the full scan pipeline for one uploaded image: prepare,
// extract, persist. When idemKey is non-empty and matches a previously
// completed creation, the original scan is returned with replayed=true and no
// extraction call is made. Extraction failures propagate untouched so the
// handler can classify them; no partial Scan is ever persisted.
func (s *ScanService) Create(ctx context.Context, userID string, image []byte, idemKey string) (scan *domain.Scan, replayed bool, err error) {
	tr := otel.Tracer("services/ScanService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("image.bytes", len(image)),
		),
	)
	defer span.End()

	// Serve a replay before doing any paid work.
	if idemKey != "" {
		if rec, lerr := repo.GetIdempotency(ctx, s.DB, userID, scanScope, idemKey, time.Now().UTC()); lerr == nil && rec != nil {
			if prior, gerr := repo.GetScan(ctx, s.DB, rec.ResultID, userID); gerr == nil {
				return prior, true, nil
			}
		}
	}

	if len(image) == 0 {
		return nil, false, ErrEmptyImage
	}
	jpeg, err := imaging.PrepareJPEG(image, s.MaxImageEdge, s.JPEGQuality)
	if err != nil {
		if errors.Is(err, imaging.ErrEmptyImage) {
			return nil, false, ErrEmptyImage
		}
		return nil, false, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	wine, err := s.Extractor.ExtractWineInfo(ctx, jpeg)
	if err != nil {
		return nil, false, err
	}

	scan, err = repo.CreateScan(ctx, s.DB, userID, wine)
	if err != nil {
		return nil, false, err
	}

	if idemKey != "" {
		// A racing duplicate is fine; the first writer wins and later
		// replays resolve to its scan.
		_, _ = repo.CreateIdempotency(ctx, s.DB, userID, scanScope, idemKey, scan.ID, 201, s.IdempotencyTTL)
	}
	return scan, false, nil
}

// Get returns one scan owned by userID.
func (s *ScanService) Get(ctx context.Context, userID, scanID string) (*domain.Scan, error) {
	tr := otel.Tracer("services/ScanService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("scan.id", scanID)),
	)
	defer span.End()

	scan, err := repo.GetScan(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, ErrScanNotFound
	}
	return scan, nil
}

// ListPage returns a page of the user's scans plus the total count.
func (s *ScanService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Scan, int64, error) {
	tr := otel.Tracer("services/ScanService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountScans(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Scan{}, 0, nil
	}
	items, err := repo.ListScansPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Related returns the user's other scans of the same label, newest first,
// matched on the derived wine identity. A scan whose wine has no derivable
// identity matches nothing.
func (s *ScanService) Related(ctx context.Context, userID, scanID string) ([]domain.Scan, error) {
	tr := otel.Tracer("services/ScanService")
	ctx, span := tr.Start(ctx, "Related",
		trace.WithAttributes(attribute.String("scan.id", scanID)),
	)
	defer span.End()

	scan, err := repo.GetScan(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, ErrScanNotFound
	}
	if scan.WineKey == "" {
		return []domain.Scan{}, nil
	}
	all, err := repo.ListScansByWineKey(ctx, s.DB, userID, scan.WineKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Scan, 0, len(all))
	for i := range all {
		if all[i].ID != scan.ID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Delete soft-deletes a scan owned by userID.
func (s *ScanService) Delete(ctx context.Context, userID, scanID string) error {
	tr := otel.Tracer("services/ScanService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("scan.id", scanID)),
	)
	defer span.End()

	if err := repo.DeleteScan(ctx, s.DB, scanID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrScanNotFound
		}
		return err
	}
	return nil
}
