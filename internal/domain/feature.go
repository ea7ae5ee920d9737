package domain

import "time"

// FeatureSchemaVersion identifies the feature layout sent to the scorer.
const FeatureSchemaVersion = "v1"

// FeatureNames lists the vector layout in order. Index positions are part of
// the scorer contract and must not be reshuffled within a schema version.
var FeatureNames = []string{
	"priority",
	"status_open",
	"status_in_progress",
	"response_remaining_minutes",
	"resolution_remaining_minutes",
	"category_hardware",
	"category_software",
	"category_infrastructure",
	"category_access",
	"avg_resolution_time",
	"breach_rate",
	"escalation_rate",
	"active_tickets",
	"technician_utilization",
	"avg_response_time",
}

// FeatureVector is an immutable snapshot of model inputs for one ticket.
// Later extractions supersede earlier ones; vectors are never mutated.
type FeatureVector struct {
	TicketID      string
	SchemaVersion string
	Values        []float64
	ExtractedAt   time.Time
}

// Feature returns the named feature value, or the zero value when the name
// is not part of the schema.
func (v FeatureVector) Feature(name string) float64 {
	for i, n := range FeatureNames {
		if n == name && i < len(v.Values) {
			return v.Values[i]
		}
	}
	return 0
}
