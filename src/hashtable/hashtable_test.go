package hashtable

import "testing"

func TestSetGetDel(t *testing.T) {
	ht := MkHash[int, string](4)
	ht.Set(1, "a")
	ht.Set(2, "b")

	if v, ok := ht.Get(1); !ok || v != "a" {
		t.Errorf("Get(1) = %q, %v, want %q, true", v, ok, "a")
	}
	ht.Set(1, "z")
	if v, _ := ht.Get(1); v != "z" {
		t.Errorf("Get(1) after overwrite = %q, want %q", v, "z")
	}

	ht.Del(2)
	if _, ok := ht.Get(2); ok {
		t.Error("Get(2) found a deleted key")
	}
	if _, ok := ht.Get(999); ok {
		t.Error("Get found a key that was never set")
	}
}

func TestSizeAndElems(t *testing.T) {
	ht := MkHash[int, int](2)
	for i := 0; i < 10; i++ {
		ht.Set(i, i*i)
	}
	if n := ht.Size(); n != 10 {
		t.Errorf("Size() = %d, want 10", n)
	}
	seen := map[int]bool{}
	for _, p := range ht.Elems() {
		if p.Value != p.Key*p.Key {
			t.Errorf("Elems() pair %d -> %d inconsistent", p.Key, p.Value)
		}
		seen[p.Key] = true
	}
	if len(seen) != 10 {
		t.Errorf("Elems() returned %d distinct keys, want 10", len(seen))
	}
}

func TestMkHashRejectsNonPositiveSize(t *testing.T) {
	ht := MkHash[int, int](0)
	ht.Set(5, 5)
	if v, ok := ht.Get(5); !ok || v != 5 {
		t.Error("hashtable with size<=0 should still fall back to one bucket")
	}
}
