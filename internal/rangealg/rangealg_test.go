package rangealg

import "testing"

func mustAlphabet(t *testing.T, s string) Alphabet {
	t.Helper()
	a, err := NewAlphabet(s)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	return a
}

func TestIndexRoundTrip(t *testing.T) {
	a := mustAlphabet(t, "abc")

	cases := []struct {
		s string
		l int
	}{
		{"a", 1},
		{"aa", 2},
		{"ab", 2},
		{"cc", 2},
		{"ccc", 3},
	}
	for _, c := range cases {
		idx, err := Index(a, c.s)
		if err != nil {
			t.Log(err.Error())
			t.FailNow()
		}
		got := StringOf(a, idx, c.l)
		if got != c.s {
			t.Log("got", got, "expected", c.s)
			t.FailNow()
		}
	}
}

func TestIndexSharedAcrossLengths(t *testing.T) {
	a := mustAlphabet(t, "abc")

	i1, err := Index(a, "a")
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	i2, err := Index(a, "aa")
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if i1 != i2 {
		t.Log("expected shared index 0, got", i1, i2)
		t.FailNow()
	}
}

func TestNextPrevStringRoundTrip(t *testing.T) {
	a := mustAlphabet(t, "abc")

	cases := []string{"aa", "ab", "ac", "ba", "cc"}
	for _, s := range cases {
		next := NextString(a, s)
		back := PrevString(a, next)
		if len(back) == len(s) && back != s {
			t.Log("NextString/PrevString not inverse for", s, "got", back)
			t.FailNow()
		}
	}

	if got := NextString(a, "cc"); got != "aaa" {
		t.Log("expected length growth to 'aaa', got", got)
		t.FailNow()
	}
}

func TestDivideIntoNCoverAndSize(t *testing.T) {
	a := mustAlphabet(t, "abc")
	whole := PartOfAProblem{Alphabet: a, Hash: "h", Start: "aa", End: "cc", State: NotDistributed}

	for n := 1; n <= 9; n++ {
		parts, err := DivideIntoN(whole, n)
		if err != nil {
			t.Log(err.Error())
			t.FailNow()
		}

		var sum uint64
		for i, p := range parts {
			sz, err := Size(p)
			if err != nil {
				t.Log(err.Error())
				t.FailNow()
			}
			sum += sz

			if i > 0 {
				prevEnd := parts[i-1].End
				if NextString(a, prevEnd) != p.Start {
					t.Log("gap or overlap between parts", i-1, i)
					t.FailNow()
				}
			}
		}

		total, _ := Size(whole)
		if sum != total {
			t.Log("size sum", sum, "!=", total, "for n =", n)
			t.FailNow()
		}

		merged, err := MergeParts(parts)
		if err != nil {
			t.Log(err.Error())
			t.FailNow()
		}
		if merged.Start != whole.Start || merged.End != whole.End {
			t.Log("merge round-trip mismatch for n =", n)
			t.FailNow()
		}
	}
}

func TestDivideHeterogeneousLength(t *testing.T) {
	a := mustAlphabet(t, "abc")
	// start length 1, end length 2: covers "a".."c" (3 strings) then "aa".."cc" (9)
	whole := PartOfAProblem{Alphabet: a, Hash: "h", Start: "a", End: "cc", State: NotDistributed}

	total, err := Size(whole)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if total != 12 {
		t.Log("expected size 12, got", total)
		t.FailNow()
	}

	parts, err := DivideIntoN(whole, 4)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	var sum uint64
	for _, p := range parts {
		sz, _ := Size(p)
		sum += sz
	}
	if sum != total {
		t.Log("size sum mismatch:", sum, "!=", total)
		t.FailNow()
	}
}

func TestUpdateStateOfPartsClipAndCoalesce(t *testing.T) {
	a := mustAlphabet(t, "abc")
	whole := PartOfAProblem{Alphabet: a, Hash: "h", Start: "aa", End: "cc", State: NotDistributed}

	parts, err := DivideIntoN(whole, 3)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	m := NewPartMap(parts)

	// mark the middle part searched and not found
	if err := m.Apply(PartOfAProblem{Alphabet: a, Hash: "h", Start: parts[1].Start, End: parts[1].End, State: SearchedAndNotFound}); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if m.Len() != 3 {
		t.Log("expected 3 parts after first update, got", m.Len())
		t.FailNow()
	}

	// now mark the first and last parts too: everything should coalesce into one
	if err := m.Apply(PartOfAProblem{Alphabet: a, Hash: "h", Start: parts[0].Start, End: parts[0].End, State: SearchedAndNotFound}); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if err := m.Apply(PartOfAProblem{Alphabet: a, Hash: "h", Start: parts[2].Start, End: parts[2].End, State: SearchedAndNotFound}); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	if !m.FullyCoveredBy(SearchedAndNotFound, whole.Start, whole.End) {
		t.Log("expected full coalesce, got:", m.Str())
		t.FailNow()
	}
}

func TestUpdateStateOfPartsPartialOverlap(t *testing.T) {
	a := mustAlphabet(t, "abc")
	whole := PartOfAProblem{Alphabet: a, Hash: "h", Start: "aa", End: "cc", State: NotDistributed}
	m := NewPartMap([]PartOfAProblem{whole})

	// a response covering only the middle third of the whole range
	mid, err := DivideIntoN(whole, 3)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if err := m.Apply(PartOfAProblem{Alphabet: a, Hash: "h", Start: mid[1].Start, End: mid[1].End, State: Solving}); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	if m.Len() != 3 {
		t.Log("expected left/mid/right shards, got", m.Len(), m.Str())
		t.FailNow()
	}
	snap := m.Slice()
	if snap[0].State != NotDistributed || snap[1].State != Solving || snap[2].State != NotDistributed {
		t.Log("unexpected state layout:", m.Str())
		t.FailNow()
	}
}

func TestPartArraySlab(t *testing.T) {
	a := mustAlphabet(t, "abc")
	whole := PartOfAProblem{Alphabet: a, Hash: "h", Start: "aa", End: "cc", State: NotDistributed}
	parts, err := DivideIntoN(whole, 3)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	pa := NewPartArray(parts)
	if pa.Len() != 3 {
		t.Log("expected 3, got", pa.Len())
		t.FailNow()
	}
	slab := pa.Slab(1, 2)
	if len(slab) != 2 || slab[0].Start != parts[1].Start {
		t.Log("unexpected slab:", slab)
		t.FailNow()
	}
	if i, ok := pa.IndexOfStart(parts[2].Start); !ok || i != 2 {
		t.Log("expected index 2, got", i, ok)
		t.FailNow()
	}
}
