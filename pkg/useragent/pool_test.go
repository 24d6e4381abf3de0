package useragent

import (
	"sync"
	"testing"
)

func TestPool_Sequential(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"}, Sequential)

	for _, want := range []string{"A", "B", "C", "A"} {
		if got := p.Next(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestPool_Default(t *testing.T) {
	p := NewPool(nil, Sequential)
	if p.Len() != len(DefaultPool) {
		t.Errorf("expected pool length %d, got %d", len(DefaultPool), p.Len())
	}
	if got := p.Next(); got != Chrome {
		t.Errorf("expected Chrome first, got %s", got)
	}
}

func TestPool_CopiesInput(t *testing.T) {
	uas := []string{"A"}
	p := NewPool(uas, Sequential)
	uas[0] = "mutated"
	if got := p.Next(); got != "A" {
		t.Errorf("expected pool to be isolated from caller slice, got %s", got)
	}
}

func TestPool_Random(t *testing.T) {
	p := NewPool([]string{"A", "B"}, Random)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := p.Next()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected both identities to be drawn, got %v", seen)
	}
}

func TestPool_Concurrent(t *testing.T) {
	uas := []string{"X", "Y", "Z"}
	p := NewPool(uas, Sequential)

	const routines = 50
	const iterations = 300

	var mu sync.Mutex
	counts := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := map[string]int{}
			for j := 0; j < iterations; j++ {
				local[p.GetSequential()]++
			}
			mu.Lock()
			for k, v := range local {
				counts[k] += v
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	want := routines * iterations / len(uas)
	for _, ua := range uas {
		if counts[ua] != want {
			t.Errorf("expected %d hits for %s, got %d", want, ua, counts[ua])
		}
	}
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{}
	if got := p.GetSequential(); got != "" {
		t.Errorf("expected empty string, got %s", got)
	}
	if got := p.GetRandom(); got != "" {
		t.Errorf("expected empty string, got %s", got)
	}
}
