package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/repository"
)

func (h *harness) query(msg ledger.QueryMsg) ([]byte, error) {
	ctx := context.Background()
	var out []byte
	err := h.store.View(ctx, func(tx repository.Txn) error {
		var err error
		out, err = ledger.Query(ctx, tx, msg)
		return err
	})
	return out, err
}

func TestQuery_GetJobDetails(t *testing.T) {
	h := newHarness(t)
	_, err := h.postJob("alice", "Build site")
	require.NoError(t, err)

	out, err := h.query(ledger.QueryMsg{GetJobDetails: &ledger.JobIDQuery{JobID: 0}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"poster":"alice","title":"Build site","description":"desc","budget":"100",
		"status":"Open","assigned_freelancer":null,"created_at":1709294400
	}`, string(out))

	_, err = h.query(ledger.QueryMsg{GetJobDetails: &ledger.JobIDQuery{JobID: 7}})
	assert.True(t, repository.IsNotFound(err))
}

func TestQuery_GetJobProposalsEmpty(t *testing.T) {
	h := newHarness(t)

	// Unknown job and job without proposals look the same.
	out, err := h.query(ledger.QueryMsg{GetJobProposals: &ledger.JobIDQuery{JobID: 99}})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	_, err = h.postJob("alice", "job")
	require.NoError(t, err)
	out, err = h.query(ledger.QueryMsg{GetJobProposals: &ledger.JobIDQuery{JobID: 0}})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestQuery_RequiresOneVariant(t *testing.T) {
	h := newHarness(t)
	_, err := h.query(ledger.QueryMsg{})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

// Repeated reads return identical bytes and leave no trace in the store.
func TestQuery_IdempotentReads(t *testing.T) {
	h := newHarness(t)
	id, err := h.postJob("alice", "job")
	require.NoError(t, err)
	require.NoError(t, h.submit("bob", id, 5, "hi"))

	msgs := []ledger.QueryMsg{
		{GetJobDetails: &ledger.JobIDQuery{JobID: id}},
		{GetJobProposals: &ledger.JobIDQuery{JobID: id}},
		{GetJobProposals: &ledger.JobIDQuery{JobID: 1234}},
	}
	for _, msg := range msgs {
		first, err := h.query(msg)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := h.query(msg)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}

	next, err := h.postJob("alice", "next")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestListJobs(t *testing.T) {
	h := newHarness(t)
	for _, title := range []string{"a", "b", "c"} {
		_, err := h.postJob("alice", title)
		require.NoError(t, err)
	}
	require.NoError(t, h.accept("alice", 1, "bob"))

	ctx := context.Background()
	var entries []entity.JobEntry
	require.NoError(t, h.store.View(ctx, func(tx repository.Txn) error {
		var err error
		entries, err = ledger.ListJobs(ctx, tx)
		return err
	}))

	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint64(i), e.ID)
	}
	assert.Equal(t, "b", entries[1].Job.Title)
	assert.Equal(t, entity.StatusInProgress, entries[1].Job.Status)
}
