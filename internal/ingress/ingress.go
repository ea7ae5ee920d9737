package ingress

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/observability"
	"github.com/spec-kit/sla-guard/internal/orchestrator"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// Disposition reports how the pipeline handled an event.
type Disposition string

const (
	DispositionAccepted  Disposition = "accepted"
	DispositionDuplicate Disposition = "duplicate"
)

// TicketEvent is the raw lifecycle event as received on the wire.
type TicketEvent struct {
	EventID      string    `json:"event_id"`
	TicketID     string    `json:"ticket_id"`
	Title        string    `json:"title"`
	Priority     int       `json:"priority"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	AssignedTech *string   `json:"assigned_tech,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Submitter accepts normalized ticket changes for processing.
type Submitter interface {
	SubmitTicketChange(change orchestrator.TicketChange) bool
}

// Deduper claims an event ID exactly once within a TTL window.
type Deduper interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Pipeline validates, deduplicates, and hands ticket events to the engine.
type Pipeline struct {
	engine Submitter
	dedupe Deduper
	ttl    time.Duration
	logger *zap.Logger
}

// NewPipeline constructs the ingestion pipeline.
func NewPipeline(engine Submitter, dedupe Deduper, dedupeTTL time.Duration, logger *zap.Logger) *Pipeline {
	if dedupeTTL <= 0 {
		dedupeTTL = 24 * time.Hour
	}
	return &Pipeline{engine: engine, dedupe: dedupe, ttl: dedupeTTL, logger: logger}
}

var validStatuses = map[domain.TicketStatus]bool{
	domain.TicketStatusOpen:       true,
	domain.TicketStatusInProgress: true,
	domain.TicketStatusPending:    true,
	domain.TicketStatusResolved:   true,
	domain.TicketStatusClosed:     true,
	domain.TicketStatusCancelled:  true,
}

var validCategories = map[domain.TicketCategory]bool{
	domain.CategoryHardware:       true,
	domain.CategorySoftware:       true,
	domain.CategoryInfrastructure: true,
	domain.CategoryAccess:         true,
	domain.CategoryGeneral:        true,
}

// Ingest processes one event. Duplicates are acknowledged without
// reprocessing so producers can deliver at-least-once.
func (p *Pipeline) Ingest(ctx context.Context, evt TicketEvent) (Disposition, error) {
	change, err := p.normalize(evt)
	if err != nil {
		observability.ObserveEventIngested("invalid")
		return "", err
	}

	if p.dedupe != nil {
		first, err := p.dedupe.ClaimOnce(ctx, "slaguard:event:"+evt.EventID, p.ttl)
		if err != nil {
			// Availability wins over strict dedupe; downstream ordering
			// checks make replays harmless.
			p.logger.Warn("event dedupe unavailable", zap.String("event_id", evt.EventID), zap.Error(err))
		} else if !first {
			observability.ObserveEventIngested("duplicate")
			return DispositionDuplicate, nil
		}
	}

	if !p.engine.SubmitTicketChange(change) {
		return "", apperrors.NewConflict("ingest backlog full", map[string]any{
			"ticket_id": change.TicketID,
		})
	}
	observability.ObserveEventIngested("accepted")
	return DispositionAccepted, nil
}

func (p *Pipeline) normalize(evt TicketEvent) (orchestrator.TicketChange, error) {
	details := map[string]any{}
	if evt.EventID == "" {
		details["event_id"] = "required"
	}
	if evt.TicketID == "" {
		details["ticket_id"] = "required"
	} else if strings.Contains(evt.TicketID, ":") {
		// Ticket IDs are embedded in ':'-delimited idempotency keys.
		details["ticket_id"] = "must not contain ':'"
	}
	if evt.Priority < 1 || evt.Priority > 4 {
		details["priority"] = "must be between 1 and 4"
	}
	status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(evt.Status)))
	if !validStatuses[status] {
		details["status"] = "unknown status"
	}
	if evt.OccurredAt.IsZero() {
		details["occurred_at"] = "required"
	}
	if len(details) > 0 {
		return orchestrator.TicketChange{}, apperrors.NewValidationError("invalid ticket event", details)
	}

	category := domain.TicketCategory(strings.ToLower(strings.TrimSpace(evt.Category)))
	if !validCategories[category] {
		category = domain.CategoryGeneral
	}

	return orchestrator.TicketChange{
		EventID:      evt.EventID,
		TicketID:     evt.TicketID,
		Title:        evt.Title,
		Priority:     evt.Priority,
		Category:     category,
		Status:       status,
		AssignedTech: evt.AssignedTech,
		OccurredAt:   evt.OccurredAt.UTC(),
	}, nil
}
