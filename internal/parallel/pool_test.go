package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunVisitsAllIndices(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 1000
	var hits [n]atomic.Int32
	p.Run(n, func(i int) {
		hits[i].Add(1)
	})

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("index %d visited %d times", i, got)
		}
	}
}

func TestRunZeroAndNegative(t *testing.T) {
	p := New(2)
	defer p.Close()

	called := false
	p.Run(0, func(int) { called = true })
	p.Run(-5, func(int) { called = true })
	if called {
		t.Error("fn called for non-positive n")
	}
}

func TestRunSingleWorkerInline(t *testing.T) {
	p := New(1)
	defer p.Close()

	var order []int
	p.Run(5, func(i int) { order = append(order, i) })
	for i, v := range order {
		if i != v {
			t.Fatalf("single-worker run out of order: %v", order)
		}
	}
}

func TestConcurrentRuns(t *testing.T) {
	// The interactive loop and a capture goroutine share one pool.
	p := New(4)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(100, func(int) { total.Add(1) })
		}()
	}
	wg.Wait()

	if got := total.Load(); got != 800 {
		t.Errorf("total invocations %d, want 800", got)
	}
}

func TestRunAfterClose(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close() // idempotent

	var count atomic.Int32
	p.Run(10, func(int) { count.Add(1) })
	if got := count.Load(); got != 10 {
		t.Errorf("inline fallback ran %d of 10", got)
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	p := New(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want >= 1", p.Workers())
	}
}

func BenchmarkRun(b *testing.B) {
	p := New(0)
	defer p.Close()

	work := func(int) {}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Run(64, work)
	}
}
