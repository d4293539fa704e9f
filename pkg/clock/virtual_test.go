package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualClock_Advance(t *testing.T) {
	vc := NewVirtualClock(epoch)
	vc.Advance(5 * time.Minute)

	want := epoch.Add(5 * time.Minute)
	if got := vc.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestVirtualClock_AdvanceNegativePanics(t *testing.T) {
	vc := NewVirtualClock(epoch)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on negative advance")
		}
	}()
	vc.Advance(-1 * time.Second)
}

func TestVirtualClock_Since(t *testing.T) {
	vc := NewVirtualClock(epoch)
	start := vc.Now()
	vc.Advance(10 * time.Millisecond)

	if got := vc.Since(start); got != 10*time.Millisecond {
		t.Errorf("Since() = %v, want 10ms", got)
	}
}

func TestVirtualClock_After_FiresOnAdvance(t *testing.T) {
	vc := NewVirtualClock(epoch)
	ch := vc.After(20 * time.Millisecond)

	select {
	case <-ch:
		t.Fatal("After() fired before advance")
	default:
	}

	vc.Advance(20 * time.Millisecond)

	select {
	case got := <-ch:
		want := epoch.Add(20 * time.Millisecond)
		if !got.Equal(want) {
			t.Errorf("After() sent %v, want %v", got, want)
		}
	default:
		t.Fatal("After() did not fire after advance")
	}
}

func TestVirtualClock_AdvanceKeepsLaterTimers(t *testing.T) {
	vc := NewVirtualClock(epoch)
	soon := vc.After(10 * time.Millisecond)
	later := vc.After(50 * time.Millisecond)

	vc.Advance(20 * time.Millisecond)
	select {
	case <-soon:
	default:
		t.Fatal("due timer did not fire")
	}
	select {
	case <-later:
		t.Fatal("later timer fired early")
	default:
	}

	vc.Advance(30 * time.Millisecond)
	select {
	case got := <-later:
		if want := epoch.Add(50 * time.Millisecond); !got.Equal(want) {
			t.Errorf("later fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("later timer did not fire")
	}
}

func TestVirtualClock_After_ZeroDuration(t *testing.T) {
	vc := NewVirtualClock(epoch)

	select {
	case <-vc.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestSteppingClock_AfterAdvances(t *testing.T) {
	vc := NewSteppingClock(epoch)

	for i := 0; i < 3; i++ {
		select {
		case <-vc.After(10 * time.Millisecond):
		default:
			t.Fatalf("After() on stepping clock did not fire (iteration %d)", i)
		}
	}

	if got := vc.Since(epoch); got != 30*time.Millisecond {
		t.Errorf("Since(epoch) = %v, want 30ms", got)
	}
}

func TestSteppingClock_FiresPendingWaiters(t *testing.T) {
	vc := NewSteppingClock(epoch)
	vc.mu.Lock()
	pending := make(chan time.Time, 1)
	vc.pending = append(vc.pending, timer{at: epoch.Add(5 * time.Millisecond), ch: pending})
	vc.mu.Unlock()

	<-vc.After(10 * time.Millisecond)

	select {
	case <-pending:
	default:
		t.Fatal("pending waiter should fire when the stepping clock passes its deadline")
	}
}

func TestVirtualClock_ConcurrentAccess(t *testing.T) {
	vc := NewVirtualClock(epoch)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = vc.Now()
			_ = vc.Since(epoch)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			vc.Advance(1 * time.Millisecond)
		}
	}()

	wg.Wait()

	want := epoch.Add(100 * time.Millisecond)
	if got := vc.Now(); !got.Equal(want) {
		t.Errorf("after concurrent ops, Now() = %v, want %v", got, want)
	}
}

func TestClocks_ImplementClock(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewVirtualClock(epoch)
}
