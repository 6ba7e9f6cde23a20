package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tierline-ai/tierline/pkg/models"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	l, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func record(model, dept, project string, cost float64) models.UsageRecord {
	return models.UsageRecord{
		Model:        model,
		Department:   dept,
		Project:      project,
		InputTokens:  100,
		OutputTokens: 50,
		Cost:         cost,
		LatencyMs:    250,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestLogAndTotalCost(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Empty ledger totals zero.
	total, err := l.TotalCost(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("expected 0 on empty ledger, got %v", total)
	}

	costs := []float64{0.001, 0.0025, 0.01}
	var want float64
	for _, c := range costs {
		if _, err := l.Log(ctx, record("flash", "eng", "chatbot", c)); err != nil {
			t.Fatal(err)
		}
		want += c
	}

	total, err = l.TotalCost(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(total-want) > 1e-9 {
		t.Errorf("expected total %v, got %v", want, total)
	}
}

func TestLogRejectsMalformedRecords(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	cases := []models.UsageRecord{
		{},                            // empty model
		{Model: "m", InputTokens: -1}, // negative tokens
		{Model: "m", Cost: -0.01},     // negative cost
		{Model: "m", LatencyMs: -5},   // negative latency
	}
	for i, rec := range cases {
		if _, err := l.Log(ctx, rec); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("case %d: expected ErrInvalidRecord, got %v", i, err)
		}
	}

	// Nothing was stored.
	n, err := l.RecordCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 records, got %d", n)
	}
}

func TestFilters(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _ = l.Log(ctx, record("flash", "eng", "chatbot", 0.01))
	_, _ = l.Log(ctx, record("flash", "eng", "search", 0.02))
	_, _ = l.Log(ctx, record("opus", "marketing", "content", 0.40))

	byDept, err := l.TotalCost(ctx, Filter{Department: "eng"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(byDept-0.03) > 1e-9 {
		t.Errorf("expected 0.03 for eng, got %v", byDept)
	}

	byProject, err := l.TotalCost(ctx, Filter{Project: "search"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(byProject-0.02) > 1e-9 {
		t.Errorf("expected 0.02 for search, got %v", byProject)
	}

	byModel, err := l.TotalCost(ctx, Filter{Model: "opus"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(byModel-0.40) > 1e-9 {
		t.Errorf("expected 0.40 for opus, got %v", byModel)
	}

	future, err := l.TotalCost(ctx, Filter{Since: time.Now().UTC().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if future != 0 {
		t.Errorf("expected 0 for future window, got %v", future)
	}
}

func TestGroupedSummaries(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _ = l.Log(ctx, record("flash", "eng", "chatbot", 0.01))
	_, _ = l.Log(ctx, record("flash", "eng", "chatbot", 0.03))
	_, _ = l.Log(ctx, record("opus", "marketing", "content", 0.40))

	byDept, err := l.CostsByDepartment(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(byDept) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(byDept))
	}
	// Ordered by total cost descending.
	if byDept[0].Entity != "marketing" || byDept[1].Entity != "eng" {
		t.Errorf("unexpected order: %s, %s", byDept[0].Entity, byDept[1].Entity)
	}
	if byDept[1].RequestCount != 2 {
		t.Errorf("expected 2 requests for eng, got %d", byDept[1].RequestCount)
	}
	if math.Abs(byDept[1].AvgCostPerRequest-0.02) > 1e-9 {
		t.Errorf("expected avg 0.02, got %v", byDept[1].AvgCostPerRequest)
	}
	if byDept[1].AvgLatencyMs != 250 {
		t.Errorf("expected avg latency 250, got %v", byDept[1].AvgLatencyMs)
	}

	byModel, err := l.CostsByModel(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel) != 2 {
		t.Fatalf("expected 2 models, got %d", len(byModel))
	}
	if byModel[0].Entity != "opus" {
		t.Errorf("expected opus first, got %s", byModel[0].Entity)
	}
}

func TestTopDepartmentsTieBreak(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Equal spend: ties must resolve by entity key order.
	_, _ = l.Log(ctx, record("flash", "zeta", "p", 0.05))
	_, _ = l.Log(ctx, record("flash", "alpha", "p", 0.05))
	_, _ = l.Log(ctx, record("flash", "mid", "p", 0.10))

	top, err := l.TopDepartments(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 departments, got %d", len(top))
	}
	if top[0].Entity != "mid" || top[1].Entity != "alpha" || top[2].Entity != "zeta" {
		t.Errorf("unexpected ranking: %s, %s, %s", top[0].Entity, top[1].Entity, top[2].Entity)
	}

	top1, err := l.TopDepartments(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top1) != 1 || top1[0].Entity != "mid" {
		t.Errorf("unexpected top-1: %+v", top1)
	}
}

func TestEntitySpendWindow(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := record("flash", "eng", "p", 1.0)
	old.CreatedAt = now.AddDate(0, 0, -40)
	_, _ = l.Log(ctx, old)
	_, _ = l.Log(ctx, record("flash", "eng", "p", 0.25))

	spend, err := l.EntitySpend(ctx, "eng", now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(spend-0.25) > 1e-9 {
		t.Errorf("expected 0.25 within window, got %v", spend)
	}
}

func TestDailyCosts(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		rec := record("flash", "eng", "p", 0.10)
		rec.CreatedAt = now.AddDate(0, 0, -i)
		_, _ = l.Log(ctx, rec)
	}

	daily, err := l.DailyCosts(ctx, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 3 {
		t.Fatalf("expected 3 days, got %d", len(daily))
	}
	// Oldest first, and dates come back as YYYY-MM-DD rather than NULL.
	if daily[0].Date >= daily[2].Date {
		t.Errorf("expected ascending dates: %s .. %s", daily[0].Date, daily[2].Date)
	}
	if want := now.Format("2006-01-02"); daily[2].Date != want {
		t.Errorf("expected today %s, got %q", want, daily[2].Date)
	}
}

func TestJournalModeIsWAL(t *testing.T) {
	l := newTestLedger(t)

	var mode string
	if err := l.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}

func TestLogBatchAtomic(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	good := []models.UsageRecord{
		record("flash", "eng", "p", 0.01),
		record("flash", "eng", "p", 0.02),
	}
	if err := l.LogBatch(ctx, good); err != nil {
		t.Fatal(err)
	}

	bad := []models.UsageRecord{
		record("flash", "eng", "p", 0.01),
		{Model: "", Cost: 0.02}, // invalid
	}
	if err := l.LogBatch(ctx, bad); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}

	n, err := l.RecordCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected only the good batch stored, got %d records", n)
	}
}

func TestConcurrentAppends(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	const goroutines = 8
	const perGoroutine = 10

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*perGoroutine)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				dept := fmt.Sprintf("dept-%d", g)
				if _, err := l.Log(ctx, record("flash", dept, "p", 0.001)); err != nil {
					errs <- err
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	n, err := l.RecordCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != goroutines*perGoroutine {
		t.Errorf("expected %d records, got %d", goroutines*perGoroutine, n)
	}

	total, err := l.TotalCost(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(total-0.001*goroutines*perGoroutine) > 1e-9 {
		t.Errorf("unexpected total %v", total)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	l1, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = l1.Close()

	l2, err := New(dbPath)
	if err != nil {
		t.Fatal("second New() failed:", err)
	}
	_ = l2.Close()
}
