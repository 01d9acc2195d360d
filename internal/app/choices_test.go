package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

func TestChoiceResolvedOnce(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	choice := table.Issue(1, 3)

	require.NoError(t, table.Resolve(choice.Token, 1, 2))

	idx, err := choice.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	// Second resolution of the same token fails without side effects.
	err = table.Resolve(choice.Token, 1, 0)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
	assert.Zero(t, table.Pending())
}

func TestResolveUnknownToken(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	err := table.Resolve("no-such-token", 1, 0)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
}

func TestResolveWrongRequester(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	choice := table.Issue(1, 2)

	err := table.Resolve(choice.Token, 99, 0)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))

	// The token stays live for its owner.
	require.NoError(t, table.Resolve(choice.Token, 1, 1))
}

func TestResolveOutOfRangeIndex(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	choice := table.Issue(1, 2)

	err := table.Resolve(choice.Token, 1, 5)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))

	err = table.Resolve(choice.Token, 1, -1)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
}

func TestIssueSupersedesPreviousToken(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	first := table.Issue(1, 2)
	second := table.Issue(1, 2)

	// The superseded choice unblocks with a stale error.
	_, err := first.Await(context.Background())
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))

	err = table.Resolve(first.Token, 1, 0)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))

	require.NoError(t, table.Resolve(second.Token, 1, 1))
	assert.Zero(t, table.Pending())
}

func TestInvalidateRequester(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	choice := table.Issue(7, 2)

	table.InvalidateRequester(7)

	_, err := choice.Await(context.Background())
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
	assert.Zero(t, table.Pending())

	// Invalidating again is a no-op.
	table.InvalidateRequester(7)
}

func TestAwaitExpiry(t *testing.T) {
	table := NewChoiceTable(20 * time.Millisecond)
	choice := table.Issue(1, 2)

	_, err := choice.Await(context.Background())
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
}

func TestExpiredTokensArePruned(t *testing.T) {
	table := NewChoiceTable(20 * time.Millisecond)
	expired := table.Issue(1, 2)
	time.Sleep(30 * time.Millisecond)

	// Issuing for an unrelated requester sweeps the dead entry too.
	table.Issue(2, 2)
	assert.Equal(t, 1, table.Pending(), "expired tokens are swept, not retained")

	err := table.Resolve(expired.Token, 1, 0)
	assert.Equal(t, domain.KindStaleChoice, domain.KindOf(err))
	assert.Equal(t, 1, table.Pending())
}

func TestAwaitContextCancelled(t *testing.T) {
	table := NewChoiceTable(time.Minute)
	choice := table.Issue(1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := choice.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
