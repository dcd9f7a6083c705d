package models

// ApprovalState is the lifecycle of a single tool call with respect to
// human approval. Transitions are driven by the orchestrator:
//
//	Auto -> Pending            (tool requires approval, not yet resolved)
//	Pending -> Approved|Denied (external actor, outside the generation run)
//
// Auto and Approved are both immediately executable; a tool that never
// requires approval stays Auto for its whole life.
type ApprovalState string

const (
	ApprovalAuto     ApprovalState = "auto"
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalDenied   ApprovalState = "denied"
)

// Executable reports whether a call in this state may run now.
func (s ApprovalState) Executable() bool {
	return s == ApprovalAuto || s == ApprovalApproved
}

// Resolved reports whether an external actor has decided a pending call.
func (s ApprovalState) Resolved() bool {
	return s == ApprovalApproved || s == ApprovalDenied
}
