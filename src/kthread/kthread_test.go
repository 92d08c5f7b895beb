package kthread

import (
	"sync/atomic"
	"testing"
)

func TestSpawnRunsFnAndWaitBlocksUntilDone(t *testing.T) {
	var ran int32
	th := Spawn("worker", func() {
		atomic.StoreInt32(&ran, 1)
	})
	th.Wait()
	if atomic.LoadInt32(&ran) != 1 {
		t.Error("fn did not run before Wait returned")
	}
}

func TestSpawnNameIsPreserved(t *testing.T) {
	th := Spawn("loader-1", func() {})
	th.Wait()
	if th.Name != "loader-1" {
		t.Errorf("Name = %q, want %q", th.Name, "loader-1")
	}
}
