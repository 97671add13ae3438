package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardVersion(t *testing.T) {
	g := NewGuard([]string{"a"})
	if v := g.Version(); v != 0 {
		t.Fatalf("initial version = %d, want 0", v)
	}

	g.Set([]string{"a", "b"})
	g.Set(nil)

	if value := g.Get(); value != nil {
		t.Errorf("Get() = %v, want nil", value)
	}
	if v := g.Version(); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
}

func TestGuardConcurrentPublish(t *testing.T) {
	type snapshot struct{ ids []int }
	g := NewGuard(snapshot{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			g.Set(snapshot{ids: []int{n}})
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = len(g.Get().ids)
		}()
	}
	wg.Wait()

	if got := len(g.Get().ids); got != 1 {
		t.Errorf("ids = %d, want 1", got)
	}
	if v := g.Version(); v != 10 {
		t.Errorf("version = %d, want 10", v)
	}
}
