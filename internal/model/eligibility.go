package model

// EligibilityStatus is the outcome class of a service-area eligibility check.
type EligibilityStatus string

const (
	EligibilityStandard       EligibilityStatus = "STANDARD"
	EligibilityActionRequired EligibilityStatus = "ACTION_REQUIRED"
)

// EligibilityDecision is the pure output of the eligibility rule: a policy
// decision with citation-backed explanation text. It has no persisted
// identity.
type EligibilityDecision struct {
	Status      EligibilityStatus `json:"eligibility_status"`
	PolicyNotes string            `json:"policy_notes"`
	Reference   string            `json:"reference"`
}
