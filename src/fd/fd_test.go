package fd

import "testing"

func TestMkTableFirstHandleIsTwo(t *testing.T) {
	tbl := MkTable()
	h := tbl.Add(nil)
	if h != 2 {
		t.Errorf("first handle = %d, want 2", h)
	}
	h2 := tbl.Add(nil)
	if h2 != 3 {
		t.Errorf("second handle = %d, want 3", h2)
	}
}

func TestGetMissingHandle(t *testing.T) {
	tbl := MkTable()
	if _, ok := tbl.Get(2); ok {
		t.Error("Get found a handle before any Add")
	}
}

func TestRemove(t *testing.T) {
	tbl := MkTable()
	h := tbl.Add(nil)
	fd, ok := tbl.Remove(h)
	if !ok || fd.Handle != h {
		t.Fatalf("Remove(%d) = %+v, %v", h, fd, ok)
	}
	if _, ok := tbl.Get(h); ok {
		t.Error("handle still present after Remove")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Error("Remove on an already-removed handle should fail")
	}
}

func TestAllAndLen(t *testing.T) {
	tbl := MkTable()
	tbl.Add(nil)
	tbl.Add(nil)
	if n := tbl.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
	all := tbl.All()
	if len(all) != 2 {
		t.Errorf("All() returned %d entries, want 2", len(all))
	}
	tbl.Remove(all[0].Handle)
	if len(all) != 2 {
		t.Error("All()'s returned slice should not alias the table")
	}
}
