package ksync

import (
	"testing"
	"time"
)

func TestLockMutualExclusion(t *testing.T) {
	l := &Lock_t{}
	l.Acquire()
	acquired := make(chan struct{})
	go func() {
		l.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned before first Release")
	case <-time.After(20 * time.Millisecond):
	}

	l.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire never unblocked after Release")
	}
}

func TestSemaDownBlocksUntilUp(t *testing.T) {
	s := MkSema(0)
	done := make(chan struct{})
	go func() {
		s.Down()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Down returned before Up")
	case <-time.After(20 * time.Millisecond):
	}

	s.Up()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Down never unblocked after Up")
	}
}

func TestSemaTryDown(t *testing.T) {
	s := MkSema(1)
	if !s.TryDown() {
		t.Fatal("TryDown on a positive semaphore should succeed")
	}
	if s.TryDown() {
		t.Fatal("TryDown on a zero semaphore should fail")
	}
}
