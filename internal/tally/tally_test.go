package tally

import "testing"

func TestMostCommonOrdersByCountThenFirstSeen(t *testing.T) {
	c := New()
	c.AddAll([]string{"sage", "cream", "black", "cream", "black", "rust"})

	got := c.MostCommon(0)
	want := []Entry{{"cream", 2}, {"black", 2}, {"sage", 1}, {"rust", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMostCommonLimit(t *testing.T) {
	c := New()
	c.AddN("a", 3)
	c.AddN("b", 5)
	c.Add("c")
	keys := c.Keys(2)
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys(2) = %v", keys)
	}
	if c.Len() != 3 || c.Get("a") != 3 || c.Get("zzz") != 0 {
		t.Error("Len/Get mismatch")
	}
}
