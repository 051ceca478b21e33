package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emirkmo/google-alert/internal/config"
	"github.com/emirkmo/google-alert/internal/lockfile"
	"github.com/emirkmo/google-alert/internal/notifier"
	"github.com/emirkmo/google-alert/internal/runinfo"
	"github.com/emirkmo/google-alert/internal/store"
)

const testNow = int64(1_700_000_000)

type fakeStore struct {
	avg     float64
	hasData bool
	avgErr  error

	lastAlert int64
	lastErr   error

	recordErr error

	avgCalls  int
	lastCalls int
	recorded  []int64
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeStore) AverageInWindow(ctx context.Context, window, now int64) (float64, bool, error) {
	f.avgCalls++
	return f.avg, f.hasData, f.avgErr
}

func (f *fakeStore) LastAlertTime(ctx context.Context) (int64, error) {
	f.lastCalls++
	return f.lastAlert, f.lastErr
}

func (f *fakeStore) RecordAlert(ctx context.Context, ts int64) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, ts)
	return nil
}

func (f *fakeStore) AddReading(ctx context.Context, r store.Reading) error { return nil }
func (f *fakeStore) Close() error                                          { return nil }

type fakeNotifier struct {
	sendErr error
	sent    []*notifier.Notification
}

func (f *fakeNotifier) Type() string { return "fake" }

func (f *fakeNotifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, n)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:          "unused",
		StoreBackend:    "sqlite",
		Threshold:       8.0,
		Cooldown:        3600,
		Window:          60,
		Message:         "Temperature below threshold",
		NotifyType:      config.NotifyCommand,
		NotifyTarget:    "/usr/local/bin/alert",
		DispatchTimeout: 5 * time.Second,
		LockPath:        filepath.Join(t.TempDir(), "monitor.lock"),
	}
}

func newTestRunner(t *testing.T, st store.Store, n notifier.Notifier) *Runner {
	t.Helper()
	r := NewRunner(testConfig(t), st, n, nil)
	r.now = func() time.Time { return time.Unix(testNow, 0) }
	return r
}

// Scenario: one reading below threshold, empty history. The alert fires,
// exactly one record lands at the decision time, exit 0.
func TestRun_ShouldAlert(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true, lastAlert: 0}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if len(nt.sent) != 1 {
		t.Fatalf("dispatch count = %d, want 1", len(nt.sent))
	}
	if nt.sent[0].Message != "Temperature below threshold" {
		t.Errorf("dispatched message = %q, want configured message", nt.sent[0].Message)
	}
	if len(st.recorded) != 1 || st.recorded[0] != testNow {
		t.Errorf("recorded alerts = %v, want exactly one at %d", st.recorded, testNow)
	}
}

// Scenario: mean above threshold. History is never read, nothing is
// dispatched or recorded, exit 0.
func TestRun_AboveThreshold(t *testing.T) {
	st := &fakeStore{avg: 10.0, hasData: true}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if st.lastCalls != 0 {
		t.Errorf("LastAlertTime called %d times, want 0 on the fast path", st.lastCalls)
	}
	if len(nt.sent) != 0 || len(st.recorded) != 0 {
		t.Errorf("sent = %d, recorded = %d, want 0 and 0", len(nt.sent), len(st.recorded))
	}
}

// A mean exactly at the threshold stays on the safe side.
func TestRun_ThresholdBoundary(t *testing.T) {
	st := &fakeStore{avg: 8.0, hasData: true}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if len(nt.sent) != 0 {
		t.Errorf("dispatch count = %d, want 0 for mean == threshold", len(nt.sent))
	}
}

// Scenario: empty window. Exit 0, no history read, no writes.
func TestRun_NoData(t *testing.T) {
	st := &fakeStore{hasData: false}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if st.lastCalls != 0 {
		t.Errorf("LastAlertTime called %d times, want 0", st.lastCalls)
	}
	if len(nt.sent) != 0 || len(st.recorded) != 0 {
		t.Errorf("sent = %d, recorded = %d, want 0 and 0", len(nt.sent), len(st.recorded))
	}
}

// Scenario: alert recorded in the future. Fatal, nothing dispatched.
func TestRun_ClockSkew(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true, lastAlert: testNow + 100}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitError {
		t.Fatalf("Run() = %d, want %d", code, ExitError)
	}
	if len(nt.sent) != 0 || len(st.recorded) != 0 {
		t.Errorf("sent = %d, recorded = %d, want 0 and 0", len(nt.sent), len(st.recorded))
	}
}

func TestRun_CooldownActive(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true, lastAlert: testNow - 10}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if len(nt.sent) != 0 || len(st.recorded) != 0 {
		t.Errorf("sent = %d, recorded = %d, want 0 and 0", len(nt.sent), len(st.recorded))
	}
}

// A failed dispatch must not write history: the next tick re-evaluates and
// fires again.
func TestRun_DispatchFailure(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true}
	nt := &fakeNotifier{sendErr: errors.New("no devices found")}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitError {
		t.Fatalf("Run() = %d, want %d", code, ExitError)
	}
	if len(st.recorded) != 0 {
		t.Errorf("recorded = %v, want none after a failed dispatch", st.recorded)
	}
}

// A failed record after a successful dispatch is the accepted
// reconciliation gap: exit 1, notification already delivered.
func TestRun_RecordFailure(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true, recordErr: errors.New("disk full")}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitError {
		t.Fatalf("Run() = %d, want %d", code, ExitError)
	}
	if len(nt.sent) != 1 {
		t.Errorf("dispatch count = %d, want 1 (record failed after delivery)", len(nt.sent))
	}
}

func TestRun_StoreReadFailure(t *testing.T) {
	st := &fakeStore{avgErr: errors.New("database is locked")}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitError {
		t.Fatalf("Run() = %d, want %d", code, ExitError)
	}
	if len(nt.sent) != 0 {
		t.Errorf("dispatch count = %d, want 0 after a read failure", len(nt.sent))
	}
}

func TestRun_HistoryReadFailure(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true, lastErr: errors.New("table corrupt")}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	if code := r.Run(context.Background()); code != ExitError {
		t.Fatalf("Run() = %d, want %d", code, ExitError)
	}
	if len(nt.sent) != 0 || len(st.recorded) != 0 {
		t.Errorf("sent = %d, recorded = %d, want 0 and 0", len(nt.sent), len(st.recorded))
	}
}

// Mutual exclusion: a held lock makes the second run exit 0 without
// touching the store at all.
func TestRun_LockBusy(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)

	held, err := lockfile.Acquire(r.cfg.LockPath)
	if err != nil {
		t.Fatalf("Acquire() error = %v, want nil", err)
	}
	defer held.Release()

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d while lock is held", code, ExitOK)
	}
	if st.avgCalls != 0 || st.lastCalls != 0 || len(st.recorded) != 0 {
		t.Errorf("store touched while lock busy: avg=%d last=%d recorded=%d",
			st.avgCalls, st.lastCalls, len(st.recorded))
	}
	if len(nt.sent) != 0 {
		t.Errorf("dispatch count = %d, want 0 while lock busy", len(nt.sent))
	}
}

// The lock must be free again after a run, whatever the outcome.
func TestRun_ReleasesLock(t *testing.T) {
	tests := []struct {
		name string
		st   *fakeStore
		nt   *fakeNotifier
	}{
		{name: "after success", st: &fakeStore{avg: 5.0, hasData: true}, nt: &fakeNotifier{}},
		{name: "after store failure", st: &fakeStore{avgErr: errors.New("boom")}, nt: &fakeNotifier{}},
		{name: "after dispatch failure", st: &fakeStore{avg: 5.0, hasData: true}, nt: &fakeNotifier{sendErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, tt.st, tt.nt)
			r.Run(context.Background())

			lock, err := lockfile.Acquire(r.cfg.LockPath)
			if err != nil {
				t.Fatalf("lock still held after Run(): %v", err)
			}
			lock.Release()
		})
	}
}

// lockProbeReporter records whether the lock was already free when the
// summary write happened.
type lockProbeReporter struct {
	lockPath string
	called   bool
	lockFree bool
	summary  runinfo.RunSummary
}

func (p *lockProbeReporter) Report(ctx context.Context, summary runinfo.RunSummary) {
	p.called = true
	p.summary = summary
	if lock, err := lockfile.Acquire(p.lockPath); err == nil {
		p.lockFree = true
		lock.Release()
	}
}

// The summary write is observability, not part of the critical section: by
// the time the reporter runs the lock must already be free.
func TestRun_ReportsAfterLockRelease(t *testing.T) {
	st := &fakeStore{avg: 5.0, hasData: true}
	nt := &fakeNotifier{}
	r := newTestRunner(t, st, nt)
	probe := &lockProbeReporter{lockPath: r.cfg.LockPath}
	r.reporter = probe

	if code := r.Run(context.Background()); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if !probe.called {
		t.Fatal("reporter was never invoked")
	}
	if !probe.lockFree {
		t.Error("lock still held during the summary write, want it released first")
	}
	if probe.summary.Outcome != "should-alert" || probe.summary.ExitCode != ExitOK {
		t.Errorf("summary = %+v, want should-alert outcome with exit 0", probe.summary)
	}
}

// End-to-end against the real SQLite store: first run alerts and records,
// a second run ten seconds later is inside the cooldown and records nothing
// more.
func TestRun_CooldownAcrossInvocations(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v, want nil", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.AddReading(ctx, store.Reading{Timestamp: testNow - 10, Temperature: 5.0}); err != nil {
		t.Fatalf("AddReading() error = %v, want nil", err)
	}

	cfg := testConfig(t)
	nt := &fakeNotifier{}

	first := NewRunner(cfg, db, nt, nil)
	first.now = func() time.Time { return time.Unix(testNow, 0) }
	if code := first.Run(ctx); code != ExitOK {
		t.Fatalf("first Run() = %d, want %d", code, ExitOK)
	}
	if len(nt.sent) != 1 {
		t.Fatalf("dispatch count after first run = %d, want 1", len(nt.sent))
	}

	// Fresh reading so the second run still sees a breach.
	if err := db.AddReading(ctx, store.Reading{Timestamp: testNow + 5, Temperature: 5.0}); err != nil {
		t.Fatalf("AddReading() error = %v, want nil", err)
	}

	second := NewRunner(cfg, db, nt, nil)
	second.now = func() time.Time { return time.Unix(testNow+10, 0) }
	if code := second.Run(ctx); code != ExitOK {
		t.Fatalf("second Run() = %d, want %d", code, ExitOK)
	}
	if len(nt.sent) != 1 {
		t.Errorf("dispatch count after second run = %d, want still 1 (cooldown)", len(nt.sent))
	}

	last, err := db.LastAlertTime(ctx)
	if err != nil {
		t.Fatalf("LastAlertTime() error = %v, want nil", err)
	}
	if last != testNow {
		t.Errorf("LastAlertTime() = %d, want %d (exactly one record)", last, testNow)
	}
}
