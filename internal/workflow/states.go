package workflow

// State is a review state shared by every reviewable kind. A request starts
// pending and ends in exactly one terminal state; reports may pass through a
// non-terminal reviewed marker on the way.
type State string

const (
	StatePending   State = "pending"
	StateReviewed  State = "reviewed"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateResolved  State = "resolved"
	StateDismissed State = "dismissed"
)

// Terminal reports whether no further transitions are permitted from s.
func (s State) Terminal() bool {
	switch s {
	case StateApproved, StateRejected, StateResolved, StateDismissed:
		return true
	}
	return false
}

// Kind identifies a reviewable request kind.
type Kind string

const (
	KindOrganizerRequest Kind = "organizer_request"
	KindQuotaRequest     Kind = "quota_request"
	KindEvent            Kind = "event"
	KindReport           Kind = "report"
)

// decisions maps each kind to its allowed decision values. Reports use the
// resolved/dismissed terminal labels (plus the reviewed marker); everything
// else uses approved/rejected.
var decisions = map[Kind]map[State]bool{
	KindOrganizerRequest: {StateApproved: true, StateRejected: true},
	KindQuotaRequest:     {StateApproved: true, StateRejected: true},
	KindEvent:            {StateApproved: true, StateRejected: true},
	KindReport:           {StateReviewed: true, StateResolved: true, StateDismissed: true},
}

// DecisionAllowed reports whether decision is a permitted value for kind.
func DecisionAllowed(kind Kind, decision State) bool {
	return decisions[kind][decision]
}
