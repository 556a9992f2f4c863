package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArmFires(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.Arm("p1", 20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.Arm("p1", 20*time.Millisecond, func() { close(fired) })
	s.Cancel("p1")

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestArmReplacesExistingTimer(t *testing.T) {
	s := New()
	defer s.Stop()

	first := make(chan struct{})
	second := make(chan struct{})
	s.Arm("p1", 20*time.Millisecond, func() { close(first) })
	s.Arm("p1", 40*time.Millisecond, func() { close(second) })

	select {
	case <-first:
		t.Fatal("replaced timer fired")
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
}

func TestCancelAfterFireIsSafe(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.Arm("p1", 10*time.Millisecond, func() { close(fired) })
	<-fired

	assert.NotPanics(t, func() { s.Cancel("p1") })
}

func TestStopCancelsAll(t *testing.T) {
	s := New()

	fired := make(chan string, 2)
	s.Arm("p1", 20*time.Millisecond, func() { fired <- "p1" })
	s.Arm("p2", 20*time.Millisecond, func() { fired <- "p2" })
	s.Stop()

	select {
	case id := <-fired:
		t.Fatalf("timer %s fired after Stop", id)
	case <-time.After(100 * time.Millisecond):
	}
}
