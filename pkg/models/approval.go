package models

import (
	"slices"
	"time"
)

// ApprovalStatus is the consensus state of an approval request. EXPIRED is
// declared for API compatibility; no transition produces it.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
	ApprovalStatusExpired  ApprovalStatus = "EXPIRED"
)

// Approval is one approver's recorded vote.
type Approval struct {
	ApproverID string    `json:"approver_id"`
	Approved   bool      `json:"approved"`
	Comment    string    `json:"comment,omitempty"`
	VotedAt    time.Time `json:"voted_at"`
}

// ApprovalRequest collects per-approver votes and resolves with
// unanimous-approve / first-reject semantics. The Votes keys are always a
// subset of ApproverIDs.
type ApprovalRequest struct {
	ID          string              `json:"id"`
	Requester   string              `json:"requester"    validate:"required"`
	ChannelID   string              `json:"channel_id"`
	Title       string              `json:"title"        validate:"required"`
	Description string              `json:"description"`
	ApproverIDs []string            `json:"approver_ids" validate:"required,min=1"`
	Votes       map[string]Approval `json:"votes"`
	Status      ApprovalStatus      `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

// HasApprover reports whether id is one of the required approvers.
func (r *ApprovalRequest) HasApprover(id string) bool {
	return slices.Contains(r.ApproverIDs, id)
}

// ComputeStatus derives the status from the vote map alone: any recorded
// rejection wins immediately; unanimous approval requires a vote from every
// approver.
func (r *ApprovalRequest) ComputeStatus() ApprovalStatus {
	for _, vote := range r.Votes {
		if !vote.Approved {
			return ApprovalStatusRejected
		}
	}

	if len(r.Votes) == len(r.ApproverIDs) {
		return ApprovalStatusApproved
	}

	return ApprovalStatusPending
}
