package accnt

import "testing"

func TestUtaddSystadd(t *testing.T) {
	a := &Accnt_t{}
	a.Utadd(100)
	a.Systadd(50)
	snap := a.Fetch()
	if snap.Userns != 100 || snap.Sysns != 50 {
		t.Errorf("Fetch() = %+v, want {100 50}", snap)
	}
}

func TestFinishAccumulatesElapsedIntoSysns(t *testing.T) {
	a := &Accnt_t{}
	start := a.Now() - 1_000_000 // pretend 1ms has already elapsed
	a.Finish(start)
	if a.Fetch().Sysns <= 0 {
		t.Error("Finish should add a positive duration to Sysns")
	}
}

func TestAddMergesCounters(t *testing.T) {
	a := &Accnt_t{Userns: 10, Sysns: 20}
	b := &Accnt_t{Userns: 1, Sysns: 2}
	a.Add(b)
	snap := a.Fetch()
	if snap.Userns != 11 || snap.Sysns != 22 {
		t.Errorf("Add() merged into %+v, want {11 22}", snap)
	}
}
