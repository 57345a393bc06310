// Package services – ProfileService
//
// This file implements ProfileService, which turns a persisted scan into an
// AI tasting profile. It loads the scan, re-hydrates its WineData, and invokes
// the synthesis client. The returned profile already carries the structural
// tannin merge performed by the client, so callers can hand it straight to a
// tasting flow.

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

// Synthesizer is the narrow synthesis contract consumed by ProfileService.
// The production implementation is somm.Client.
type Synthesizer interface {
	// TastingProfile synthesizes an expected profile for the given wine.
	TastingProfile(ctx context.Context, wine *domain.WineData) (*domain.AITastingProfile, error)
}

// ProfileService synthesizes tasting profiles for persisted scans.
type ProfileService struct {
	DB          *gorm.DB
	Synthesizer Synthesizer
}

// Synthesize loads the scan owned by userID and returns its AI tasting
// profile. Synthesis failures propagate untouched so the handler can classify
// them.
func (s *ProfileService) Synthesize(ctx context.Context, userID, scanID string) (*domain.AITastingProfile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Synthesize",
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
	wine := scan.Wine()
	return s.Synthesizer.TastingProfile(ctx, &wine)
}
