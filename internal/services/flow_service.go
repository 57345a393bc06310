// Package services – FlowService
//
// This file implements FlowService, the in-memory registry of active guided
// tastings. A flow is server-side session state: it is created against a
// persisted scan, mutated step by step, and on the terminal advance the
// finalized session is persisted as a Tasting and the flow is discarded.
// Flows are evicted lazily after TTL so abandoned sessions never accumulate.

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/repo"
	"github.com/vinobytes/somm-backend/internal/tasting"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Scalar field names accepted by SetField.
const (
	FieldAcidity   = "acidity"
	FieldAlcohol   = "alcohol"
	FieldTannin    = "tannin"
	FieldBody      = "body"
	FieldSweetness = "sweetness"
	FieldNotes     = "notes"
)

// Selection kinds accepted by Toggle.
const (
	KindAroma  = "aroma"
	KindFlavor = "flavor"
)

type flowEntry struct {
	flow    *tasting.Flow
	scanID  string
	userID  string
	created time.Time
}

// FlowService owns active guided-tasting flows.
type FlowService struct {
	DB  *gorm.DB
	TTL time.Duration

	mu    sync.Mutex
	flows map[string]*flowEntry

	// now is swappable in tests.
	now func() time.Time
}

// NewFlowService constructs a FlowService. A non-positive ttl defaults to
// two hours.
func NewFlowService(db *gorm.DB, ttl time.Duration) *FlowService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &FlowService{
		DB:    db,
		TTL:   ttl,
		flows: make(map[string]*flowEntry),
		now:   time.Now,
	}
}

// Start verifies scan ownership and registers a new flow for it, returning
// the flow id and the flow itself.
func (s *FlowService) Start(ctx context.Context, userID, scanID string, profile domain.AITastingProfile, opts tasting.Options) (string, *tasting.Flow, error) {
	tr := otel.Tracer("services/FlowService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("scan.id", scanID),
		),
	)
	defer span.End()

	scan, err := repo.GetScan(ctx, s.DB, scanID, userID)
	if err != nil {
		return "", nil, ErrScanNotFound
	}

	f := tasting.New(scan.Wine(), profile, opts)
	id := uuid.NewString()

	s.mu.Lock()
	s.pruneLocked()
	s.flows[id] = &flowEntry{flow: f, scanID: scanID, userID: userID, created: s.now()}
	s.mu.Unlock()

	return id, f, nil
}

// Get returns the live flow for id, owned by userID.
func (s *FlowService) Get(ctx context.Context, userID, flowID string) (*tasting.Flow, error) {
	_, span := otel.Tracer("services/FlowService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("flow.id", flowID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryLocked(userID, flowID)
	if err != nil {
		return nil, err
	}
	return e.flow, nil
}

// SetField writes one scalar or the notes field on the flow.
func (s *FlowService) SetField(ctx context.Context, userID, flowID, field, value string) (*tasting.Flow, error) {
	_, span := otel.Tracer("services/FlowService").Start(ctx, "SetField",
		trace.WithAttributes(
			attribute.String("flow.id", flowID),
			attribute.String("field", field),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryLocked(userID, flowID)
	if err != nil {
		return nil, err
	}

	f := e.flow
	switch field {
	case FieldAcidity:
		f.SetAcidity(domain.ParseIntensity5(value))
	case FieldAlcohol:
		f.SetAlcohol(domain.ParseIntensity5(value))
	case FieldTannin:
		f.SetTannin(domain.ParseIntensity5(value))
	case FieldBody:
		f.SetBody(domain.ParseBodyLevel(value))
	case FieldSweetness:
		f.SetSweetness(domain.ParseSweetnessLevel(value))
	case FieldNotes:
		f.SetNotes(value)
	default:
		return nil, ErrUnknownField
	}
	return f, nil
}

// Toggle flips membership of item in the aroma or flavor selection.
// Pool and capacity violations surface as the flow package's errors.
func (s *FlowService) Toggle(ctx context.Context, userID, flowID, kind, item string) (*tasting.Flow, error) {
	_, span := otel.Tracer("services/FlowService").Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("flow.id", flowID),
			attribute.String("kind", kind),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryLocked(userID, flowID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindAroma:
		err = e.flow.ToggleAroma(item)
	case KindFlavor:
		err = e.flow.ToggleFlavor(item)
	default:
		return nil, ErrUnknownSelectionKind
	}
	if err != nil {
		return nil, err
	}
	return e.flow, nil
}

// Advance moves the flow one step forward. On the terminal advance the
// finalized session is persisted as a Tasting, the flow is removed from the
// registry, and the stored record is returned alongside a nil flow.
func (s *FlowService) Advance(ctx context.Context, userID, flowID string) (*tasting.Flow, *domain.Tasting, error) {
	tr := otel.Tracer("services/FlowService")
	ctx, span := tr.Start(ctx, "Advance",
		trace.WithAttributes(attribute.String("flow.id", flowID)),
	)
	defer span.End()

	s.mu.Lock()
	e, err := s.entryLocked(userID, flowID)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	session, err := e.flow.Advance()
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	if session == nil {
		f := e.flow
		s.mu.Unlock()
		return f, nil, nil
	}
	// Terminal advance: drop the flow while the insert runs, both so a slow
	// insert never holds the registry lock and so a concurrent advance cannot
	// persist the same session twice.
	delete(s.flows, flowID)
	scanID := e.scanID
	s.mu.Unlock()

	rec, err := repo.CreateTasting(ctx, s.DB, scanID, userID, session)
	if err != nil {
		// Put the flow back so the client can retry once the store recovers;
		// the buffered input survives the failed insert.
		s.mu.Lock()
		s.flows[flowID] = e
		s.mu.Unlock()
		return nil, nil, err
	}
	e.flow.Finish()
	return nil, rec, nil
}

// Active reports the number of live flows. Used by tests and diagnostics.
func (s *FlowService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.flows)
}

// entryLocked resolves and ownership-checks a flow; caller holds mu.
func (s *FlowService) entryLocked(userID, flowID string) (*flowEntry, error) {
	s.pruneLocked()
	e, ok := s.flows[flowID]
	if !ok || e.userID != userID {
		return nil, ErrFlowNotFound
	}
	return e, nil
}

// pruneLocked evicts flows older than TTL; caller holds mu.
func (s *FlowService) pruneLocked() {
	cutoff := s.now().Add(-s.TTL)
	for id, e := range s.flows {
		if e.created.Before(cutoff) {
			delete(s.flows, id)
		}
	}
}
