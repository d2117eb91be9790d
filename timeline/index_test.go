package timeline

import (
	"math/rand"
	"sort"
	"testing"
)

// bruteForceActive is the O(n) reference the index is checked against
func bruteForceActive(intervals []IndexedInterval, point int64) []string {
	var ids []string
	for _, iv := range intervals {
		if iv.Start <= point && point < iv.End {
			ids = append(ids, iv.ID)
		}
	}
	return ids
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

func assertSameIDs(t *testing.T, got, want []string) {
	t.Helper()
	g, w := sortedCopy(got), sortedCopy(want)
	if len(g) != len(w) {
		t.Fatalf("id count mismatch: got %v want %v", g, w)
	}
	for i := range g {
		if g[i] != w[i] {
			t.Fatalf("id mismatch at %d: got %v want %v", i, g, w)
		}
	}
}

func TestFindActiveMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(200)
		intervals := make([]IndexedInterval, n)
		for i := range intervals {
			start := int64(rng.Intn(10000))
			span := int64(1 + rng.Intn(2000))
			intervals[i] = IndexedInterval{
				ID:    "iv" + itoa(i),
				Start: start,
				End:   start + span,
			}
		}

		ix := NewIndex()
		ix.Build(intervals)

		for q := 0; q < 50; q++ {
			point := int64(rng.Intn(13000)) - 500
			got := ix.FindActive(point)
			want := bruteForceActive(intervals, point)
			assertSameIDs(t, got, want)
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestFindActiveIdempotent(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{
		{ID: "n1", Start: 0, End: 960},
		{ID: "n2", Start: 480, End: 1440},
	})

	first := ix.FindActive(500)
	second := ix.FindActive(500)
	assertSameIDs(t, first, second)
}

func TestHalfOpenBoundary(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{{ID: "n", Start: 0, End: 960}})

	if got := ix.FindActive(0); len(got) != 1 {
		t.Errorf("expected active at start point, got %v", got)
	}
	if got := ix.FindActive(959); len(got) != 1 {
		t.Errorf("expected active at end-1, got %v", got)
	}
	if got := ix.FindActive(960); len(got) != 0 {
		t.Errorf("expected inactive exactly at end point, got %v", got)
	}
}

func TestChordSharedStart(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{
		{ID: "a", Start: 0, End: 960},
		{ID: "b", Start: 0, End: 480},
	})

	assertSameIDs(t, ix.FindActive(0), []string{"a", "b"})
	assertSameIDs(t, ix.FindActive(500), []string{"a"})
	assertSameIDs(t, ix.FindActive(960), nil)
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex()
	ix.Build(nil)

	for _, p := range []int64{-1, 0, 1, 1 << 40} {
		if got := ix.FindActive(p); len(got) != 0 {
			t.Errorf("empty index returned %v for point %d", got, p)
		}
	}
}

func TestPointBeforeFirstInterval(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{{ID: "n", Start: 100, End: 200}})

	if got := ix.FindActive(50); len(got) != 0 {
		t.Errorf("expected empty result before first start, got %v", got)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	src := []IndexedInterval{
		{ID: "x", Start: 10, End: 20},
		{ID: "y", Start: 0, End: 5},
	}
	ix := NewIndex()
	ix.Build(src)

	// Mutating the caller's slice must not corrupt the index
	src[0] = IndexedInterval{ID: "z", Start: 0, End: 1}

	assertSameIDs(t, ix.FindActive(15), []string{"x"})
}

func TestRebuildReplacesContents(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{{ID: "old", Start: 0, End: 100}})
	ix.Build([]IndexedInterval{{ID: "new", Start: 0, End: 100}})

	assertSameIDs(t, ix.FindActive(50), []string{"new"})
	if ix.Len() != 1 {
		t.Errorf("expected 1 interval after rebuild, got %d", ix.Len())
	}
}

func TestClear(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{{ID: "n", Start: 0, End: 10}})
	ix.Clear()

	if got := ix.FindActive(5); len(got) != 0 {
		t.Errorf("expected empty result after clear, got %v", got)
	}
	if ix.MaxSpan() != 0 {
		t.Errorf("expected zero maxSpan after clear, got %d", ix.MaxSpan())
	}
}

func TestFindActiveIntoReusesBuffer(t *testing.T) {
	ix := NewIndex()
	ix.Build([]IndexedInterval{
		{ID: "a", Start: 0, End: 100},
		{ID: "b", Start: 50, End: 150},
	})

	buf := make([]string, 0, 8)
	out := ix.FindActiveInto(75, buf)
	assertSameIDs(t, out, []string{"a", "b"})
	if cap(out) != cap(buf) {
		t.Errorf("expected buffer reuse, cap %d != %d", cap(out), cap(buf))
	}
}
