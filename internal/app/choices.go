package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// PendingChoice ties one presented option set to the requester who must
// answer it. Consumed exactly once; superseded or expired tokens reject
// with a stale-choice error.
type PendingChoice struct {
	Token       string
	RequesterID int64
	Options     int
	deadline    time.Time
	answer      chan int
	cancelled   chan struct{}
}

// Await blocks until the requester answers, the choice is invalidated, the
// TTL elapses, or ctx is done.
func (p *PendingChoice) Await(ctx context.Context) (int, error) {
	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()

	select {
	case idx := <-p.answer:
		return idx, nil
	case <-p.cancelled:
		return 0, domain.Fail(domain.KindStaleChoice, "", "", context.Canceled)
	case <-timer.C:
		return 0, domain.Fail(domain.KindStaleChoice, "", "", context.DeadlineExceeded)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ChoiceTable is the process-wide registry of pending choices. One dispatcher
// resolves callback tokens to pipeline state instead of accumulating
// per-option listeners, so a later request can never mis-route into an
// earlier request's handlers.
type ChoiceTable struct {
	mu          sync.Mutex
	byToken     map[string]*PendingChoice
	byRequester map[int64]string
	ttl         time.Duration
}

// NewChoiceTable creates a choice table with the given token lifetime.
func NewChoiceTable(ttl time.Duration) *ChoiceTable {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ChoiceTable{
		byToken:     make(map[string]*PendingChoice),
		byRequester: make(map[int64]string),
		ttl:         ttl,
	}
}

// Issue registers a new pending choice for a requester, invalidating any
// earlier unconsumed token for the same requester.
func (t *ChoiceTable) Issue(requesterID int64, options int) *PendingChoice {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneExpiredLocked(time.Now())
	if prev, ok := t.byRequester[requesterID]; ok {
		t.invalidateLocked(prev)
	}

	p := &PendingChoice{
		Token:       uuid.New().String(),
		RequesterID: requesterID,
		Options:     options,
		deadline:    time.Now().Add(t.ttl),
		answer:      make(chan int, 1),
		cancelled:   make(chan struct{}),
	}
	t.byToken[p.Token] = p
	t.byRequester[requesterID] = p.Token
	return p
}

// Resolve consumes a token with the requester's selected index. It fails
// with a stale-choice error and no side effect when the token is unknown,
// expired, belongs to another requester, or carries an out-of-range index.
func (t *ChoiceTable) Resolve(token string, requesterID int64, index int) error {
	t.mu.Lock()
	t.pruneExpiredLocked(time.Now())
	p, ok := t.byToken[token]
	if !ok || p.RequesterID != requesterID {
		t.mu.Unlock()
		return domain.Fail(domain.KindStaleChoice, "", "", nil)
	}
	if index < 0 || index >= p.Options {
		t.mu.Unlock()
		return domain.Fail(domain.KindStaleChoice, "", "", nil)
	}
	t.removeLocked(p)
	t.mu.Unlock()

	p.answer <- index
	return nil
}

// Invalidate discards a token without consuming it.
func (t *ChoiceTable) Invalidate(token string) {
	t.mu.Lock()
	t.invalidateLocked(token)
	t.mu.Unlock()
}

// InvalidateRequester discards any live token for a requester. Called when
// a new request supersedes an in-flight negotiation.
func (t *ChoiceTable) InvalidateRequester(requesterID int64) {
	t.mu.Lock()
	if token, ok := t.byRequester[requesterID]; ok {
		t.invalidateLocked(token)
	}
	t.mu.Unlock()
}

// Pending returns the number of live tokens.
func (t *ChoiceTable) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byToken)
}

// pruneExpiredLocked sweeps entries past their deadline so tokens from
// requesters who never answered do not accumulate.
func (t *ChoiceTable) pruneExpiredLocked(now time.Time) {
	for _, p := range t.byToken {
		if now.After(p.deadline) {
			t.removeLocked(p)
			close(p.cancelled)
		}
	}
}

func (t *ChoiceTable) invalidateLocked(token string) {
	p, ok := t.byToken[token]
	if !ok {
		return
	}
	t.removeLocked(p)
	close(p.cancelled)
}

func (t *ChoiceTable) removeLocked(p *PendingChoice) {
	delete(t.byToken, p.Token)
	if t.byRequester[p.RequesterID] == p.Token {
		delete(t.byRequester, p.RequesterID)
	}
}
