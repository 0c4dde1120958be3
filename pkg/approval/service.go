// Package approval manages multi-approver approval requests.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

var (
	ErrNotAnApprover = errors.New("user is not an approver for this request")
	ErrNoApprovers   = errors.New("approval request needs at least one approver")
)

type Service struct {
	logger    *slog.Logger
	approvals persistence.ApprovalRepository
	publisher eventbus.EventPublisher
}

func NewService(
	logger *slog.Logger,
	approvals persistence.ApprovalRepository,
	publisher eventbus.EventPublisher,
) *Service {
	return &Service{
		logger:    logger.With("module", "approval"),
		approvals: approvals,
		publisher: publisher,
	}
}

func (s *Service) Create(ctx context.Context, requester, channelID, title, description string, approverIDs []string) (*models.ApprovalRequest, error) {
	if len(approverIDs) == 0 {
		return nil, ErrNoApprovers
	}

	request := &models.ApprovalRequest{
		ID:          uuid.New().String(),
		Requester:   requester,
		ChannelID:   channelID,
		Title:       title,
		Description: description,
		ApproverIDs: approverIDs,
		Votes:       make(map[string]models.Approval),
		Status:      models.ApprovalStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.approvals.SaveApproval(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save approval request: %w", err)
	}

	s.logger.InfoContext(ctx, "Created approval request",
		"approval_id", request.ID, "requester", requester, "approvers", len(approverIDs))

	return request, nil
}

// Vote upserts one approver's decision and recomputes the request status as
// a single atomic unit. A repeated vote by the same approver overwrites the
// earlier one, so a rejector voting again can change the outcome.
func (s *Service) Vote(ctx context.Context, requestID, approverID string, approved bool, comment string) (*models.ApprovalRequest, error) {
	var previous models.ApprovalStatus

	request, err := s.approvals.UpdateApproval(ctx, requestID, func(request *models.ApprovalRequest) error {
		if !request.HasApprover(approverID) {
			return ErrNotAnApprover
		}

		previous = request.Status

		request.Votes[approverID] = models.Approval{
			ApproverID: approverID,
			Approved:   approved,
			Comment:    comment,
			VotedAt:    time.Now().UTC(),
		}

		request.Status = request.ComputeStatus()

		switch {
		case request.Status == models.ApprovalStatusPending:
			request.ResolvedAt = nil
		case request.Status != previous:
			resolvedAt := time.Now().UTC()
			request.ResolvedAt = &resolvedAt
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Recorded approval vote",
		"approval_id", requestID, "approver", approverID,
		"approved", approved, "status", request.Status)

	if request.Status != models.ApprovalStatusPending && request.Status != previous {
		s.publishResolved(ctx, request, approverID)
	}

	return request, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return s.approvals.ApprovalByID(ctx, id)
}

func (s *Service) ListPendingForApprover(ctx context.Context, approverID string) ([]*models.ApprovalRequest, error) {
	return s.approvals.PendingApprovalsForApprover(ctx, approverID)
}

func (s *Service) publishResolved(ctx context.Context, request *models.ApprovalRequest, resolvedBy string) {
	event := events.ApprovalResolved{
		BaseEvent:  events.NewBaseEvent(events.ApprovalResolvedEvent),
		ApprovalID: request.ID,
		Status:     request.Status,
		ResolvedBy: resolvedBy,
	}

	if err := s.publisher.Publish(ctx, request.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish approval event",
			"approval_id", request.ID, "error", err)
	}
}
