package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := NewFake(start)

	var order []int
	c.AfterFunc(2*time.Minute, func() { order = append(order, 2) })
	c.AfterFunc(time.Minute, func() { order = append(order, 1) })
	c.AfterFunc(10*time.Minute, func() { order = append(order, 10) })

	c.Advance(5 * time.Minute)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected firing order: %v", order)
	}
	if got := c.Now(); !got.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("unexpected now: %v", got)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", c.Pending())
	}
}

func TestFakeStopPreventsCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("expected Stop to report prevention")
	}
	if timer.Stop() {
		t.Fatal("expected second Stop to report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeCallbackMaySchedule(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	count := 0
	var arm func()
	arm = func() {
		c.AfterFunc(time.Minute, func() {
			count++
			arm()
		})
	}
	arm()

	c.Advance(3 * time.Minute)
	if count != 3 {
		t.Fatalf("expected 3 firings, got %d", count)
	}
}

func TestFakeSetSkipsCallbacks(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	c.AfterFunc(time.Minute, func() { fired = true })

	c.Set(time.Unix(3600, 0))
	if fired {
		t.Fatal("Set must not run callbacks")
	}
	if c.Pending() != 1 {
		t.Fatalf("expected timer still pending, got %d", c.Pending())
	}
}
