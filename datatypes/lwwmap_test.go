package datatypes

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"library/cvrdt/communication"
	"library/cvrdt/crdt"

	"github.com/jmcvetta/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLWWMapGet(t *testing.T) {
	m := NewLWWMap[string, int]("a")

	v, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, v)

	assert.True(t, m.Set("k", 1))
	assert.True(t, m.Set("k", 2))
	v, ok = m.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	e, ok := m.Entry("k")
	require.True(t, ok)
	assert.Equal(t, Entry[int]{Value: 2, Timestamp: 2, Writer: "a"}, e)
	assert.Equal(t, []string{"k"}, m.Keys())
	assert.Equal(t, 1, m.Len())
}

func TestLWWMapOlderWriteIgnored(t *testing.T) {
	clock := communication.NewManualClock(2000)
	m := NewLWWMap[string, string]("a", WithClock(clock))

	assert.True(t, m.Set("k", "new"))
	clock.Set(1000)
	assert.False(t, m.Set("k", "old"))

	v, _ := m.Get("k")
	assert.Equal(t, "new", v)
}

func TestLWWMapNewerTimestampWins(t *testing.T) {
	for _, rounds := range []int{1, 2, 5} {
		a := NewLWWMap[string, string]("a")
		b := NewLWWMap[string, string]("b")
		a.SetWithTimestamp("k", "late", 2000)
		b.SetWithTimestamp("k", "early", 1000)

		for i := 0; i < rounds; i++ {
			snapA, snapB := a.Clone(), b.Clone()
			a.Merge(snapB)
			b.Merge(snapA)
		}

		va, _ := a.Get("k")
		vb, _ := b.Get("k")
		assert.Equal(t, "late", va, "rounds=%d", rounds)
		assert.Equal(t, "late", vb, "rounds=%d", rounds)
	}

	// writer id order must not override the timestamp
	z := NewLWWMap[string, string]("z")
	z.SetWithTimestamp("k", "early", 1000)
	a := NewLWWMap[string, string]("a")
	a.SetWithTimestamp("k", "late", 2000)
	z.Merge(a)
	v, _ := z.Get("k")
	assert.Equal(t, "late", v)
}

// Regression: equal timestamps used to resolve to whichever value was
// merged last, so A<-B and B<-A disagreed.
func TestLWWMapEqualTimestampTieBreak(t *testing.T) {
	a := NewLWWMap[string, string]("A")
	b := NewLWWMap[string, string]("B")
	a.SetWithTimestamp("k", "from-a", 1000)
	b.SetWithTimestamp("k", "from-b", 1000)

	snapA, snapB := a.Clone(), b.Clone()
	a.Merge(snapB)
	b.Merge(snapA)

	va, _ := a.Get("k")
	vb, _ := b.Get("k")
	assert.Equal(t, va, vb)
	assert.Equal(t, "from-b", va, "higher writer id wins a timestamp tie")
	assert.True(t, a.Equal(b))
}

func TestLWWMapSameWriterTieBreak(t *testing.T) {
	first := NewLWWMap[string, string]("a")
	first.SetWithTimestamp("k", "apple", 5)
	first.SetWithTimestamp("k", "banana", 5)

	second := NewLWWMap[string, string]("a")
	second.SetWithTimestamp("k", "banana", 5)
	assert.False(t, second.SetWithTimestamp("k", "apple", 5))

	v1, _ := first.Get("k")
	v2, _ := second.Get("k")
	assert.Equal(t, "banana", v1)
	assert.Equal(t, v1, v2)

	// offering the stored entry again is a no-op
	assert.False(t, second.SetWithTimestamp("k", "banana", 5))
}

func TestLWWMapWithValueOrder(t *testing.T) {
	smallest := func(a, b any) int { return -cmp.Compare(a.(int), b.(int)) }
	m := NewLWWMap[string, int]("a", WithValueOrder(smallest))

	m.SetWithTimestamp("k", 7, 1)
	m.SetWithTimestamp("k", 3, 1)
	m.SetWithTimestamp("k", 9, 1)
	v, _ := m.Get("k")
	assert.Equal(t, 3, v)
}

func TestLWWMapMergeWitnessesClock(t *testing.T) {
	a := NewLWWMap[string, int]("a")
	b := NewLWWMap[string, int]("b")
	b.SetWithTimestamp("k", 1, 50)

	a.Merge(b)
	assert.True(t, a.Set("k", 2), "a local write after a merge must order after it")

	e, _ := a.Entry("k")
	assert.Equal(t, uint64(51), e.Timestamp)
}

func TestLWWMapJoinAdvancesSharedClock(t *testing.T) {
	a := NewLWWMap[string, int]("a")
	b := NewLWWMap[string, int]("b")
	b.SetWithTimestamp("k", 1, 40)

	joined := crdt.Join(a, b)
	assert.Equal(t, 0, a.Len(), "join must not change the state of a")
	assert.Equal(t, 1, joined.Len())

	a.Set("other", 2)
	e, _ := a.Entry("other")
	assert.Equal(t, uint64(41), e.Timestamp)
}

func TestLWWMapMergeDoesNotMutateArgument(t *testing.T) {
	a := NewLWWMap[string, int]("a")
	b := NewLWWMap[string, int]("b")
	b.SetWithTimestamp("k", 1, 10)
	before := b.Clone()

	a.Merge(b)
	a.SetWithTimestamp("k", 2, 20)
	a.SetWithTimestamp("other", 3, 20)

	assert.True(t, b.Equal(before))
	assert.Equal(t, 1, b.Len())
}

func TestLWWMapStructValues(t *testing.T) {
	type item struct {
		Name string
		Qty  int
	}
	a := NewLWWMap[string, item]("a")
	b := NewLWWMap[string, item]("a")
	a.SetWithTimestamp("k", item{"milk", 1}, 3)
	b.SetWithTimestamp("k", item{"milk", 2}, 3)

	assert.True(t, crdt.Commutative(a, b))
	v, _ := crdt.Join(a, b).Get("k")
	assert.Equal(t, item{"milk", 2}, v)
}

// Values of different types can print alike; the tie-break must still
// pick the same one whatever the merge direction.
func TestLWWMapTieBreakAcrossValueTypes(t *testing.T) {
	type label string
	pairs := [][2]any{
		{int(1), int64(1)},
		{"x", label("x")},
		{uint8(7), int8(7)},
	}

	for _, p := range pairs {
		a := NewLWWMap[string, any]("a")
		b := NewLWWMap[string, any]("a")
		a.SetWithTimestamp("k", p[0], 5)
		b.SetWithTimestamp("k", p[1], 5)

		ab := crdt.Join(a, b)
		ba := crdt.Join(b, a)
		vab, _ := ab.Get("k")
		vba, _ := ba.Get("k")
		assert.Equal(t, vab, vba, "%T vs %T", p[0], p[1])
		assert.True(t, crdt.Commutative(a, b), "%T vs %T", p[0], p[1])
	}
}

func TestLWWMapSetAfterExplicitTimestamp(t *testing.T) {
	m := NewLWWMap[string, string]("a")
	m.SetWithTimestamp("k", "explicit", 100)

	assert.True(t, m.Set("k", "later"))
	e, _ := m.Entry("k")
	assert.Equal(t, "later", e.Value)
	assert.Equal(t, uint64(101), e.Timestamp)
}

func TestLWWMapNaNIsIdempotent(t *testing.T) {
	m := NewLWWMap[string, float64]("a")
	m.SetWithTimestamp("k", math.NaN(), 1)
	m.SetWithTimestamp("j", 2.5, 1)

	assert.True(t, crdt.Idempotent(m))
	assert.True(t, m.Equal(m.Clone()))

	other := NewLWWMap[string, float64]("a")
	other.SetWithTimestamp("k", 3, 1)
	other.SetWithTimestamp("j", 2.5, 1)
	assert.False(t, m.Equal(other))
}

// random histories over three replicas; timestamps are drawn from a
// tiny range so that collisions are the common case
func genMaps(vals []reflect.Value, rand *rand.Rand) {
	replicas := []*LWWMap[string, string]{
		NewLWWMap[string, string]("a"),
		NewLWWMap[string, string]("b"),
		NewLWWMap[string, string]("c"),
	}
	keys := []string{"x", "y"}
	choices := []randutil.Choice{
		{Weight: 1, Item: stepMerge},
		{Weight: 3, Item: stepWrite},
	}
	for i := 0; i < 20; i++ {
		r := replicas[rand.Intn(len(replicas))]
		switch nextStep(choices) {
		case stepMerge:
			r.Merge(replicas[rand.Intn(len(replicas))].Clone())
		default:
			r.SetWithTimestamp(keys[rand.Intn(len(keys))], fmt.Sprintf("v%d", rand.Intn(4)), uint64(rand.Intn(3)))
		}
	}
	for i := range vals {
		vals[i] = reflect.ValueOf(replicas[i%len(replicas)])
	}
}

func TestLWWMapSemilattice(t *testing.T) {

	// Define property to test
	property := func(a, b, c *LWWMap[string, string]) bool {
		before := a.Clone()
		ok := crdt.Semilattice(a, b, c)
		return ok && a.Equal(before)
	}

	config := &quick.Config{MaxCount: 300, Values: genMaps}
	if err := quick.Check(property, config); err != nil {
		t.Error(err)
	}
}

func TestLWWMapConvergesInAnyOrder(t *testing.T) {

	// Define property to test: every key reads the same after folding
	// the states in different orders
	property := func(a, b, c *LWWMap[string, string]) bool {
		x := crdt.Join(crdt.Join(a, b), c)
		y := crdt.Join(c, crdt.Join(b, a))
		for _, k := range []string{"x", "y"} {
			vx, okx := x.Get(k)
			vy, oky := y.Get(k)
			if vx != vy || okx != oky {
				return false
			}
		}
		return true
	}

	config := &quick.Config{MaxCount: 300, Values: genMaps}
	require.NoError(t, quick.Check(property, config))
}
