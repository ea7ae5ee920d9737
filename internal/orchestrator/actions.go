package orchestrator

import "github.com/spec-kit/sla-guard/internal/domain"

// Preventive action names dispatched to the execution collaborator.
const (
	ActionEscalateImmediately    = "escalate-immediately"
	ActionNotifyManager          = "notify-manager"
	ActionTriggerIncidentResp    = "trigger-incident-response"
	ActionBoostPriority          = "boost-priority"
	ActionAssignSeniorTech       = "assign-senior-tech"
	ActionDispatchOnsiteTech     = "dispatch-onsite-tech"
	ActionEngageVendorSupport    = "engage-vendor-support"
	ActionSendReminder           = "send-reminder"
	ActionCheckDependencies      = "check-dependencies"
	ActionPrepareWorkaround      = "prepare-workaround"
	ActionCheckSpareParts        = "check-spare-parts"
	ActionAutoResetPassword      = "auto-reset-password"
)

// SelectActions chooses the candidate action set for a ticket given its risk
// band and probability. Order is stable: the first entry is the recommended
// next action for the queue projection. An empty result means no workflow.
func SelectActions(ticket *domain.Ticket, band domain.RiskBand, probability float64) []string {
	var actions []string
	add := func(names ...string) {
		for _, name := range names {
			if !containsAction(actions, name) {
				actions = append(actions, name)
			}
		}
	}

	switch band {
	case domain.BandBreachImminent:
		add(ActionEscalateImmediately, ActionNotifyManager)
		if ticket.Category == domain.CategoryInfrastructure {
			add(ActionTriggerIncidentResp)
		}
	case domain.BandAtRisk:
		add(ActionBoostPriority, ActionAssignSeniorTech)
		switch ticket.Category {
		case domain.CategoryHardware:
			add(ActionDispatchOnsiteTech)
		case domain.CategorySoftware:
			add(ActionEngageVendorSupport)
		}
	case domain.BandWatch:
		add(ActionSendReminder, ActionCheckDependencies)
		if ticket.Priority <= 2 {
			add(ActionPrepareWorkaround)
		}
	default:
		return nil
	}

	if ticket.Category == domain.CategoryHardware && probability >= 0.6 {
		add(ActionCheckSpareParts)
	}
	if ticket.Category == domain.CategoryAccess && probability >= 0.4 {
		add(ActionAutoResetPassword)
	}
	return actions
}

func containsAction(actions []string, name string) bool {
	for _, a := range actions {
		if a == name {
			return true
		}
	}
	return false
}
