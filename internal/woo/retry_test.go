package woo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	var calls int
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503, URL: "/orders"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return &StatusError{Code: 404, URL: "/orders/9"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	var calls int
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return &StatusError{Code: 500, URL: "/orders"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute}.Do(ctx, func(context.Context) error {
		return &StatusError{Code: 500, URL: "/orders"}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&StatusError{Code: 502}))
	assert.True(t, Retryable(&StatusError{Code: 429}))
	assert.False(t, Retryable(&StatusError{Code: 400}))
	assert.False(t, Retryable(errors.New("parse failure")))
	assert.True(t, Retryable(context.DeadlineExceeded))
}

func TestClientListOrdersPagination(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ck_test", user)
		page := r.URL.Query().Get("page")
		pages.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if page == "1" {
			_, _ = w.Write([]byte(`[{"id": 1, "number": "1"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_test", "cs_test", fastPolicy(2))
	orders, err := client.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int32(1), pages.Load(), "short page ends pagination")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "number": "42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck", "cs", fastPolicy(3))
	order, err := client.GetOrder(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", order["number"])
	assert.Equal(t, int32(2), calls.Load())
}
