// Package services – TastingService
//
// This file implements TastingService, the read side of recorded tastings.
// A Tasting row stores only the input/profile snapshots; the display identity
// (wine name, region, vintage) is rebuilt from the parent scan at read time,
// and the grape shorthand is taken from the taster's first selected aroma,
// matching how the history screen labels sessions.

package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TastingService serves persisted tasting sessions.
type TastingService struct {
	DB *gorm.DB
}

// List returns every session recorded for a scan, newest first.
func (s *TastingService) List(ctx context.Context, userID, scanID string) ([]domain.TastingSession, error) {
	tr := otel.Tracer("services/TastingService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("scan.id", scanID),
		),
	)
	defer span.End()

	scan, err := repo.GetScan(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, ErrScanNotFound
	}
	rows, err := repo.ListTastings(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TastingSession, 0, len(rows))
	for i := range rows {
		out = append(out, assembleSession(&rows[i], scan))
	}
	return out, nil
}

// Latest returns the most recent session recorded for a scan, which is what
// the history screen surfaces by default.
func (s *TastingService) Latest(ctx context.Context, userID, scanID string) (*domain.TastingSession, error) {
	tr := otel.Tracer("services/TastingService")
	ctx, span := tr.Start(ctx, "Latest",
		trace.WithAttributes(attribute.String("scan.id", scanID)),
	)
	defer span.End()

	scan, err := repo.GetScan(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, ErrScanNotFound
	}
	t, err := repo.LatestTasting(ctx, s.DB, scanID, userID)
	if err != nil {
		return nil, ErrTastingNotFound
	}
	session := assembleSession(t, scan)
	return &session, nil
}

// Get returns a single session by id.
func (s *TastingService) Get(ctx context.Context, userID, tastingID string) (*domain.TastingSession, error) {
	tr := otel.Tracer("services/TastingService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("tasting.id", tastingID)),
	)
	defer span.End()

	t, err := repo.GetTasting(ctx, s.DB, tastingID, userID)
	if err != nil {
		return nil, ErrTastingNotFound
	}
	scan, err := repo.GetScan(ctx, s.DB, t.ScanID, userID)
	if err != nil {
		return nil, ErrScanNotFound
	}
	session := assembleSession(t, scan)
	return &session, nil
}

// assembleSession rebuilds the display DTO from a stored row and its scan.
func assembleSession(t *domain.Tasting, scan *domain.Scan) domain.TastingSession {
	wine := scan.Wine()
	input := t.Input()

	grape := ""
	if len(input.Aromas) > 0 {
		grape = input.Aromas[0]
	}
	region := ""
	if wine.Region != nil {
		region = *wine.Region
	}
	return domain.TastingSession{
		ID:        t.ID,
		WineID:    wine.ID(),
		WineName:  wine.DisplayName(),
		Grape:     grape,
		Region:    region,
		Vintage:   wine.Vintage,
		UserInput: input,
		AIProfile: t.Profile(),
		CreatedAt: t.CreatedAt,
	}
}
