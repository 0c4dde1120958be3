package approval_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence/memory"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	return nil
}

func (p *capturingPublisher) published() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]eventbus.Event(nil), p.events...)
}

func newTestService(t *testing.T) (*approval.Service, *capturingPublisher) {
	t.Helper()

	publisher := &capturingPublisher{}
	service := approval.NewService(slog.Default(), memory.NewApprovalRepository(), publisher)

	return service, publisher
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy to prod", "release 2.0", []string{"alice", "bob"})
	require.NoError(t, err)

	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.ApprovalStatusPending, request.Status)
	assert.Empty(t, request.Votes)
	assert.Nil(t, request.ResolvedAt)
}

func TestService_Create_RequiresApprovers(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)

	_, err := service.Create(context.Background(), "dana", "ops", "Deploy", "", nil)
	assert.ErrorIs(t, err, approval.ErrNoApprovers)
}

func TestService_Vote_UnanimousApproval(t *testing.T) {
	t.Parallel()

	service, publisher := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy", "", []string{"alice", "bob"})
	require.NoError(t, err)

	afterFirst, err := service.Vote(context.Background(), request.ID, "alice", true, "lgtm")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, afterFirst.Status)
	assert.Empty(t, publisher.published())

	afterSecond, err := service.Vote(context.Background(), request.ID, "bob", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, afterSecond.Status)
	assert.NotNil(t, afterSecond.ResolvedAt)

	published := publisher.published()
	require.Len(t, published, 1)

	resolved, ok := published[0].(events.ApprovalResolved)
	require.True(t, ok)
	assert.Equal(t, models.ApprovalStatusApproved, resolved.Status)
	assert.Equal(t, "bob", resolved.ResolvedBy)
}

func TestService_Vote_FirstRejectionWins(t *testing.T) {
	t.Parallel()

	service, publisher := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy", "", []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	rejected, err := service.Vote(context.Background(), request.ID, "bob", false, "not yet")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.ResolvedAt)
	assert.Len(t, publisher.published(), 1)

	// Further approvals leave the rejection standing while bob's false vote
	// is on record.
	afterApproval, err := service.Vote(context.Background(), request.ID, "alice", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, afterApproval.Status)
	assert.Len(t, afterApproval.Votes, 2)
}

func TestService_Vote_RejectorRevoteRecomputesStatus(t *testing.T) {
	t.Parallel()

	service, publisher := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy", "", []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	_, err = service.Vote(context.Background(), request.ID, "alice", true, "")
	require.NoError(t, err)

	rejected, err := service.Vote(context.Background(), request.ID, "bob", false, "hold on")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRejected, rejected.Status)

	// Bob changing his mind upserts his vote and the status follows the
	// vote map: carol has not voted yet, so the request is pending again.
	reopened, err := service.Vote(context.Background(), request.ID, "bob", true, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)

	resolved, err := service.Vote(context.Background(), request.ID, "carol", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	// One event for the rejection, one for the eventual approval.
	assert.Len(t, publisher.published(), 2)
}

func TestService_Vote_RejectsOutsiders(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy", "", []string{"alice"})
	require.NoError(t, err)

	_, err = service.Vote(context.Background(), request.ID, "mallory", true, "")
	assert.ErrorIs(t, err, approval.ErrNotAnApprover)

	// The failed vote left no trace.
	current, err := service.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Votes)
}

func TestService_Vote_RevoteOverwrites(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)

	request, err := service.Create(context.Background(),
		"dana", "ops", "Deploy", "", []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = service.Vote(context.Background(), request.ID, "alice", true, "fine")
	require.NoError(t, err)

	updated, err := service.Vote(context.Background(), request.ID, "alice", true, "still fine")
	require.NoError(t, err)

	assert.Len(t, updated.Votes, 1)
	assert.Equal(t, "still fine", updated.Votes["alice"].Comment)
	assert.Equal(t, models.ApprovalStatusPending, updated.Status)
}

func TestService_ListPendingForApprover(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)

	first, err := service.Create(context.Background(),
		"dana", "ops", "Deploy A", "", []string{"alice", "bob"})
	require.NoError(t, err)

	second, err := service.Create(context.Background(),
		"dana", "ops", "Deploy B", "", []string{"alice"})
	require.NoError(t, err)

	// Resolve the second one.
	_, err = service.Vote(context.Background(), second.ID, "alice", true, "")
	require.NoError(t, err)

	pending, err := service.ListPendingForApprover(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	none, err := service.ListPendingForApprover(context.Background(), "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}
