package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"careerhub-backend/errors"
	"careerhub-backend/models/documents"
	"careerhub-backend/services/events"
	"careerhub-backend/services/export"
	"careerhub-backend/services/storage"
	"careerhub-backend/store/storetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls  map[string]int
	fail   map[string]error
	failed []string
	// failures before succeeding
	flaky int
}

func (f *fakeProcessor) Process(_ context.Context, id string) (*documents.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	if f.calls[id] <= f.flaky {
		return nil, errors.New("storage timeout")
	}
	return &documents.Export{ID: id, Status: documents.ExportCompleted}, nil
}

func (f *fakeProcessor) Fail(_ context.Context, id string, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeProcessor) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type ackRecorder struct {
	mu     sync.Mutex
	acks   int
	nacks  int
	closed chan struct{}
	want   int
}

func (a *ackRecorder) done() {
	if a.acks+a.nacks == a.want {
		close(a.closed)
	}
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	a.done()
	return nil
}

func (a *ackRecorder) Nack(uint64, bool, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.done()
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error { return nil }

func delivery(t *testing.T, ack amqp.Acknowledger, body interface{}) amqp.Delivery {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: raw}
}

func testPool(p Processor, n int) *Pool {
	pool := NewPool(p, n)
	pool.backoff = func(int) time.Duration { return time.Millisecond }
	return pool
}

func TestPoolProcessesAndAcks(t *testing.T) {
	proc := &fakeProcessor{
		flaky: 2,
		fail:  map[string]error{"gone": errors.NotFoundf("export gone")},
	}
	ack := &ackRecorder{closed: make(chan struct{}), want: 3}

	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- delivery(t, ack, export.Job{ExportID: "a"})
	deliveries <- delivery(t, ack, export.Job{ExportID: "gone"})
	deliveries <- delivery(t, ack, []byte("{not json"))
	close(deliveries)

	require.NoError(t, testPool(proc, 2).Run(context.Background(), deliveries))

	select {
	case <-ack.closed:
	case <-time.After(time.Second):
		t.Fatal("deliveries were not settled")
	}
	assert.Equal(t, 2, ack.acks)
	assert.Equal(t, 1, ack.nacks)
	assert.Equal(t, 3, proc.count("a"))
	assert.Equal(t, 1, proc.count("gone"))
	assert.Equal(t, []string{"gone"}, proc.failed)
}

func TestPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	errc := make(chan error, 1)
	go func() { errc <- testPool(&fakeProcessor{}, 4).Run(ctx, deliveries) }()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	n, err := retry(context.Background(), 3, func(int) time.Duration { return 0 }, func() error {
		calls++
		return errors.New("flaky")
	})
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, calls)
	assert.ErrorContains(t, err, "after 3 attempts")

	n, err = retry(context.Background(), 3, func(int) time.Duration { return 0 }, func() error {
		return errors.Invalidf("bad kind")
	})
	assert.Equal(t, 1, n)
	assert.True(t, errors.IsInvalidRequestError(err))
}

// brokenStore fails the first failures Puts.
type brokenStore struct {
	*storage.Memory
	mu       sync.Mutex
	failures int
}

func (b *brokenStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
		b.mu.Unlock()
		return errors.New("storage timeout")
	}
	b.mu.Unlock()
	return b.Memory.Put(ctx, key, contentType, data)
}

func runExport(t *testing.T, failures int) (*documents.Export, *events.Recorder) {
	t.Helper()
	ctx := context.Background()
	db := storetest.Open(t)
	rec := &events.Recorder{}
	svc := export.NewService(db, &brokenStore{Memory: storage.NewMemory(), failures: failures}, rec)

	resume := &documents.Resume{Title: "Backend Resume", FullName: "Ada Lovelace"}
	resume.UserID = 1
	require.NoError(t, db.Create(resume).Error)
	exp, err := svc.Start(ctx, 1, export.Request{Kind: documents.KindResume, ID: resume.ID, Format: documents.FormatPDF}, true)
	require.NoError(t, err)

	ack := &ackRecorder{closed: make(chan struct{}), want: 1}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- delivery(t, ack, export.Job{ExportID: exp.ID})
	close(deliveries)
	require.NoError(t, testPool(svc, 1).Run(ctx, deliveries))
	<-ack.closed

	got, err := svc.Get(ctx, 1, exp.ID)
	require.NoError(t, err)
	return got, rec
}

func TestTransientFailureIsNotReported(t *testing.T) {
	exp, rec := runExport(t, 1)
	assert.Equal(t, documents.ExportCompleted, exp.Status)
	assert.Equal(t, []string{events.ExportCompleted}, rec.Types())
}

func TestFailureReportedOnceAfterLastAttempt(t *testing.T) {
	exp, rec := runExport(t, DefaultAttempts)
	assert.Equal(t, documents.ExportFailed, exp.Status)
	assert.Contains(t, exp.Error, "storage timeout")
	assert.Equal(t, []string{events.ExportFailed}, rec.Types())
}
