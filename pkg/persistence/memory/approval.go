package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

// ApprovalRepository holds approval requests. UpdateApproval runs the vote
// upsert and status recompute under the store lock, so two concurrent
// approving votes cannot both observe an incomplete vote map.
type ApprovalRepository struct {
	mu        sync.RWMutex
	approvals map[string]*models.ApprovalRequest
}

func NewApprovalRepository() *ApprovalRepository {
	return &ApprovalRepository{
		approvals: make(map[string]*models.ApprovalRequest),
	}
}

func (r *ApprovalRepository) SaveApproval(_ context.Context, request *models.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.approvals[request.ID] = cloneApproval(request)

	return nil
}

func (r *ApprovalRepository) ApprovalByID(_ context.Context, id string) (*models.ApprovalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.approvals[id]
	if !ok {
		return nil, persistence.ErrApprovalNotFound
	}

	return cloneApproval(request), nil
}

func (r *ApprovalRepository) PendingApprovalsForApprover(_ context.Context, approverID string) ([]*models.ApprovalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.ApprovalRequest, 0)

	for _, request := range r.approvals {
		if request.Status == models.ApprovalStatusPending && request.HasApprover(approverID) {
			result = append(result, cloneApproval(request))
		}
	}

	return result, nil
}

func (r *ApprovalRepository) UpdateApproval(_ context.Context, id string, fn func(*models.ApprovalRequest) error) (*models.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.approvals[id]
	if !ok {
		return nil, persistence.ErrApprovalNotFound
	}

	updated := cloneApproval(request)
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.approvals[id] = updated

	return cloneApproval(updated), nil
}

func cloneApproval(request *models.ApprovalRequest) *models.ApprovalRequest {
	clone := *request
	clone.ApproverIDs = slices.Clone(request.ApproverIDs)

	if request.Votes != nil {
		clone.Votes = maps.Clone(request.Votes)
	}

	return &clone
}
