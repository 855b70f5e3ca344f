package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func ruleWithValidation(id, url string) *types.Rule {
	return &types.Rule{
		ID:      id,
		Name:    id,
		Pattern: `(?P<secret>.+)`,
		Validation: &types.HTTPValidationSpec{
			Method:        "GET",
			URL:           url,
			Auth:          types.AuthSpec{Type: "bearer", SecretGroup: "secret"},
			SuccessStatus: []int{200},
			FailureStatus: []int{401},
		},
	}
}

func TestEngine_NoValidatorConfiguredIsUndetermined(t *testing.T) {
	db := types.NewRulesDatabase([]*types.Rule{{ID: "kf.no-validation"}})
	e := NewEngine(db, 2)

	match := &types.Match{RuleID: "kf.no-validation", Groups: [][]byte{[]byte("x")}}
	result, err := e.ValidateMatch(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUndetermined, result.Status)
	assert.False(t, e.HasValidator("kf.no-validation"))
}

func TestEngine_EmptySecretIsUndetermined(t *testing.T) {
	db := types.NewRulesDatabase(nil)
	e := NewEngine(db, 2)

	match := &types.Match{RuleID: "kf.whatever"}
	result, err := e.ValidateMatch(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUndetermined, result.Status)
}

func TestEngine_CacheHitShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db := types.NewRulesDatabase([]*types.Rule{ruleWithValidation("kf.cached", srv.URL)})
	e := NewEngine(db, 2)

	match := &types.Match{RuleID: "kf.cached", NamedGroups: map[string][]byte{"secret": []byte("tok")}}

	result1, err := e.ValidateMatch(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusValid, result1.Status)

	result2, err := e.ValidateMatch(context.Background(), match)
	require.NoError(t, err)
	assert.Same(t, result1, result2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestEngine_BoundsConcurrency(t *testing.T) {
	const maxConcurrent = 2
	var current, maxObserved int32
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&maxObserved)
			if n <= old || atomic.CompareAndSwapInt32(&maxObserved, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&current, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db := types.NewRulesDatabase([]*types.Rule{ruleWithValidation("kf.bounded", srv.URL)})
	e := NewEngine(db, maxConcurrent)

	const totalRequests = 6
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			match := &types.Match{
				RuleID:      "kf.bounded",
				NamedGroups: map[string][]byte{"secret": []byte(string(rune('a' + i)))},
			}
			_, err := e.ValidateMatch(context.Background(), match)
			assert.NoError(t, err)
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxObserved)), maxConcurrent)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxObserved)), maxConcurrent)
}

func TestEngine_ContextCancellationWhileWaitingForSlot(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db := types.NewRulesDatabase([]*types.Rule{ruleWithValidation("kf.blocked", srv.URL)})
	e := NewEngine(db, 1)

	blocker := &types.Match{RuleID: "kf.blocked", NamedGroups: map[string][]byte{"secret": []byte("one")}}
	go e.ValidateMatch(context.Background(), blocker)
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	waiter := &types.Match{RuleID: "kf.blocked", NamedGroups: map[string][]byte{"secret": []byte("two")}}
	_, err := e.ValidateMatch(ctx, waiter)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
