package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
)

func sampleNotification() repository.Notification {
	return repository.Notification{
		Event:      repository.EventEscrowResolved,
		Recipients: []uuid.UUID{uuid.New(), uuid.New()},
		Payload:    map[string]interface{}{"status": "released", "amount": "250.00"},
		OccurredAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func TestWebhookSink_SignsBody(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "secret", time.Second)
	require.NoError(t, sink.Notify(context.Background(), sampleNotification()))

	assert.Equal(t, Sign("secret", gotBody), gotSig)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &body))
	assert.Equal(t, "escrow_resolved", body["type"])
	assert.Equal(t, "2026-02-03T04:05:06Z", body["timestamp"])
}

func TestWebhookSink_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSink(srv.URL, "", time.Second).Notify(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Notify(ctx context.Context, n repository.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockSink) Name() string { return "mock" }

func TestDispatcher_SwallowsFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := metrics.New(prometheus.NewRegistry())

	failing := new(mockSink)
	failing.On("Notify", mock.Anything, mock.Anything).Return(errors.New("down"))
	ok := new(mockSink)
	ok.On("Notify", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(log, m, failing, Named("second", ok))
	err := d.Notify(context.Background(), sampleNotification())

	assert.NoError(t, err)
	failing.AssertExpectations(t)
	ok.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailuresVec().WithLabelValues("mock")))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "escrow_resolved", hook.LastEntry().Data["event"])
}

func TestDispatcher_IgnoresCallerCancellation(t *testing.T) {
	sink := new(mockSink)
	sink.On("Notify", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewDispatcher(nil, nil, sink).Notify(ctx, sampleNotification()))
	sink.AssertExpectations(t)
}

type blockingSink struct {
	release   chan struct{}
	delivered chan repository.Notification
}

func (s *blockingSink) Notify(ctx context.Context, n repository.Notification) error {
	<-s.release
	s.delivered <- n
	return nil
}

func (s *blockingSink) Name() string { return "blocking" }

func TestDispatcher_AsyncDoesNotBlockCaller(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), delivered: make(chan repository.Notification, 1)}
	d := NewDispatcher(nil, nil, sink).Async()

	returned := make(chan error, 1)
	go func() { returned <- d.Notify(context.Background(), sampleNotification()) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify ждёт медленный sink")
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(waitCtx), context.DeadlineExceeded)

	close(sink.release)
	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, repository.EventEscrowResolved, (<-sink.delivered).Event)
}

func TestDispatcher_AsyncCountsFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	failing := new(mockSink)
	failing.On("Notify", mock.Anything, mock.Anything).Return(errors.New("down"))

	d := NewDispatcher(nil, m, failing).Async()
	require.NoError(t, d.Notify(context.Background(), sampleNotification()))
	require.NoError(t, d.Wait(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailuresVec().WithLabelValues("mock")))
}
