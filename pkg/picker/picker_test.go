package picker

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/handwrite/pkg/catalog"
)

// firstSource always picks the first available candidate.
type firstSource struct{ calls int }

func (s *firstSource) IntN(n int) int {
	s.calls++
	return 0
}

func variants(char rune, n int) []catalog.VariantID {
	ids := make([]catalog.VariantID, n)
	for i := range ids {
		ids[i] = catalog.VariantID(fmt.Sprintf("%c/%02d.svg", char, i))
	}
	return ids
}

func TestPickMissingCharacter(t *testing.T) {
	src := &firstSource{}
	p := New(catalog.NewMemory(nil), src)

	for _, r := range []rune{'永', 'A'} {
		if id, ok := p.Pick(r); ok {
			t.Errorf("Pick(%q) = %q, want no variant", r, id)
		}
		if w := p.Window(r); len(w) != 0 {
			t.Errorf("Window(%q) = %v after missing pick, want empty", r, w)
		}
	}
	if src.calls != 0 {
		t.Errorf("source consulted %d times for missing characters", src.calls)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		char rune
		want string
		cjk  bool
	}{
		{'永', FullWidthBlank, true},
		{'一', FullWidthBlank, true},
		{'鿿', FullWidthBlank, true},
		{'䷿', HalfWidthBlank, false},
		{'ꀀ', HalfWidthBlank, false},
		{'A', HalfWidthBlank, false},
		{'。', HalfWidthBlank, false},
	}
	for _, tt := range tests {
		if got := Fallback(tt.char); got != tt.want {
			t.Errorf("Fallback(%q) = %q, want %q", tt.char, got, tt.want)
		}
		if got := IsCJK(tt.char); got != tt.cjk {
			t.Errorf("IsCJK(%q) = %v, want %v", tt.char, got, tt.cjk)
		}
	}
}

func TestPickNoRepeatWithinWindow(t *testing.T) {
	for _, n := range []int{2, 5, 10, 11, 25} {
		t.Run(fmt.Sprintf("%d candidates", n), func(t *testing.T) {
			cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', n)})
			p := New(cat, NewSource(7), WithPolicy(ReuseOldest))

			var history []catalog.VariantID
			for range 200 {
				id, ok := p.Pick('a')
				if !ok {
					t.Fatalf("Pick() returned no variant with ReuseOldest policy")
				}
				history = append(history, id)
			}

			span := min(DefaultWindowSize, n)
			for i := range history {
				lo := max(0, i-span+1)
				recent := history[lo:i]
				if slices.Contains(recent, history[i]) {
					t.Fatalf("pick %d repeated %s within the last %d picks: %v", i, history[i], span, recent)
				}
			}
		})
	}
}

func TestPickWindowFIFO(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', 12)})
	p := New(cat, &firstSource{})

	for range 11 {
		if _, ok := p.Pick('a'); !ok {
			t.Fatal("Pick() returned no variant")
		}
	}

	// Picks 00..10 in order; 00 has been evicted.
	want := variants('a', 11)[1:]
	if diff := cmp.Diff(want, p.Window('a')); diff != "" {
		t.Errorf("Window() mismatch (-want +got):\n%s", diff)
	}

	// 00 is eligible again and is the first available candidate.
	if id, _ := p.Pick('a'); id != "a/00.svg" {
		t.Errorf("Pick() after eviction = %s, want a/00.svg", id)
	}
}

func TestPickExhaustedFallbackBlank(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', 3)})
	p := New(cat, NewSource(1))

	seen := map[catalog.VariantID]bool{}
	for range 3 {
		id, ok := p.Pick('a')
		if !ok {
			t.Fatal("Pick() returned no variant before exhaustion")
		}
		seen[id] = true
	}
	if len(seen) != 3 {
		t.Errorf("first 3 picks used %d distinct variants, want 3", len(seen))
	}

	before := p.Window('a')
	if id, ok := p.Pick('a'); ok {
		t.Errorf("Pick() on exhausted window = %s, want no variant", id)
	}
	if diff := cmp.Diff(before, p.Window('a')); diff != "" {
		t.Errorf("exhausted Pick() changed the window (-before +after):\n%s", diff)
	}
}

func TestPickExhaustedReuseOldest(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', 3)})
	p := New(cat, &firstSource{}, WithPolicy(ReuseOldest))

	for range 3 {
		p.Pick('a')
	}
	id, ok := p.Pick('a')
	if !ok || id != "a/00.svg" {
		t.Fatalf("Pick() = %s, %v; want a/00.svg, true", id, ok)
	}
	want := []catalog.VariantID{"a/01.svg", "a/02.svg", "a/00.svg"}
	if diff := cmp.Diff(want, p.Window('a')); diff != "" {
		t.Errorf("Window() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetPolicy(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', 1)})
	p := New(cat, &firstSource{})

	p.Pick('a')
	if _, ok := p.Pick('a'); ok {
		t.Fatal("exhausted Pick() with blank policy should report no variant")
	}
	p.SetPolicy(ReuseOldest)
	if id, ok := p.Pick('a'); !ok || id != "a/00.svg" {
		t.Errorf("Pick() after SetPolicy(ReuseOldest) = %s, %v; want a/00.svg, true", id, ok)
	}
}

func TestPickTouchesOnlyOneWindow(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{
		'a': variants('a', 4),
		'b': variants('b', 4),
	})
	p := New(cat, NewSource(3))

	p.Pick('b')
	b := p.Window('b')
	for range 4 {
		p.Pick('a')
	}
	if diff := cmp.Diff(b, p.Window('b')); diff != "" {
		t.Errorf("picking 'a' changed the window of 'b' (-before +after):\n%s", diff)
	}
}

func TestAllVariantsIdempotent(t *testing.T) {
	all := variants('永', 4)
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'永': all})
	p := New(cat, NewSource(9))

	first := p.AllVariants('永')
	for range 4 {
		p.Pick('永')
	}
	second := p.AllVariants('永')

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("AllVariants() changed after picks (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(all, second); diff != "" {
		t.Errorf("AllVariants() mismatch (-want +got):\n%s", diff)
	}
}

func TestPickDeterministic(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{'a': variants('a', 15)})

	run := func() []catalog.VariantID {
		p := New(cat, NewSource(42))
		var out []catalog.VariantID
		for range 30 {
			id, _ := p.Pick('a')
			out = append(out, id)
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different picks (-first +second):\n%s", diff)
	}
}

func TestSnapshotRestore(t *testing.T) {
	cat := catalog.NewMemory(map[rune][]catalog.VariantID{
		'a': variants('a', 12),
		'b': variants('b', 2),
	})
	p := New(cat, NewSource(5))
	for range 6 {
		p.Pick('a')
	}
	p.Pick('b')

	snap := p.Snapshot()
	snap['a'][0] = "mutated"
	if p.Window('a')[0] == "mutated" {
		t.Fatal("Snapshot() shares memory with the picker")
	}

	snap = p.Snapshot()
	q := New(cat, NewSource(5))
	q.Restore(snap)
	if diff := cmp.Diff(p.Snapshot(), q.Snapshot()); diff != "" {
		t.Errorf("Restore() mismatch (-want +got):\n%s", diff)
	}

	q.Reset()
	if len(q.Snapshot()) != 0 {
		t.Errorf("Reset() left windows %v", q.Snapshot())
	}
}

func TestRestoreTrimsToWindowSize(t *testing.T) {
	p := New(catalog.NewMemory(nil), nil, WithWindowSize(2))
	p.Restore(map[rune][]catalog.VariantID{'a': variants('a', 5)})

	want := []catalog.VariantID{"a/03.svg", "a/04.svg"}
	if diff := cmp.Diff(want, p.Window('a')); diff != "" {
		t.Errorf("Window() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", FallbackBlank, false},
		{"blank", FallbackBlank, false},
		{"reuse", ReuseOldest, false},
		{"lru", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tt.in)
		}
	}
}
