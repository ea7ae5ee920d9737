package domain

import "time"

// TicketStatus enumerates lifecycle states reported by the ticketing system.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// TicketCategory enumerates ticket subject areas used for action selection.
type TicketCategory string

const (
	CategoryHardware       TicketCategory = "hardware"
	CategorySoftware       TicketCategory = "software"
	CategoryInfrastructure TicketCategory = "infrastructure"
	CategoryAccess         TicketCategory = "access"
	CategoryGeneral        TicketCategory = "general"
)

// Ticket is the aggregate tracked for SLA breach prediction.
type Ticket struct {
	ID                 string
	Title              string
	Priority           int // 1 (critical) .. 4 (low)
	Category           TicketCategory
	Status             TicketStatus
	AssignedTech       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	ClosedAt           *time.Time
}

// IsClosed reports whether the ticket has reached a terminal status.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed || t.Status == TicketStatusCancelled
}

// IsResolved reports whether work on the ticket has finished.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved || t.IsClosed()
}
