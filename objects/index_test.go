package objects

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/btree"
	"github.com/mtolib/mtolib-go/maxtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSelector builds a Selector whose object set and per-node Area/Power are
// entirely synthetic, so Catalog can be exercised without depending on the
// significance test picking a particular set of objects.
func fakeSelector(t *testing.T, n int) *Selector {
	t.Helper()

	data := make([]float32, n)
	tree, err := maxtree.Build(maxtree.NewImage(data, int16(n), 1), maxtree.Conn4)
	require.NoError(t, err)

	s := &Selector{
		Tree:  tree,
		flags: make([]uint8, n),
	}
	for i := 0; i < n; i++ {
		s.flags[i] |= flagObject
		tree.Nodes[i].Area = int32(i + 1)
		tree.Attrs[i].Power = float64(i) * 1.5
	}
	return s
}

func TestCatalogLookupRoundTrips(t *testing.T) {
	s := fakeSelector(t, 5)
	cat := NewCatalog(s)
	require.Equal(t, 5, cat.Len())

	for i := 0; i < 5; i++ {
		stat, ok := cat.Lookup(int32(i+1), float64(i)*1.5)
		require.True(t, ok)
		assert.Equal(t, int32(i), stat.NodeIndex)
	}

	_, ok := cat.Lookup(999, 0)
	assert.False(t, ok)
}

func TestCatalogSkipsNonObjects(t *testing.T) {
	s := fakeSelector(t, 4)
	s.flags[2] &^= flagObject

	cat := NewCatalog(s)
	assert.Equal(t, 3, cat.Len())
	_, ok := cat.Lookup(3, 3.0)
	assert.False(t, ok)
}

// btreeObjectStat adapts ObjectStat for use as a google/btree ordered key on
// Power, giving an independent reference implementation of range selection
// to check Catalog.RangeByPower against.
type btreeObjectStat ObjectStat

func (a btreeObjectStat) Less(b btree.Item) bool { return a.Power < b.(btreeObjectStat).Power }

func TestCatalogRangeByPowerAgainstBTreeOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const n = 500
	data := make([]float32, n)
	tree, err := maxtree.Build(maxtree.NewImage(data, int16(n), 1), maxtree.Conn4)
	require.NoError(t, err)

	s := &Selector{Tree: tree, flags: make([]uint8, n)}
	oracle := btree.New(8)
	for i := 0; i < n; i++ {
		s.flags[i] |= flagObject
		tree.Nodes[i].Area = int32(i + 1)
		// Distinct powers: avoids the oracle's ReplaceOrInsert collapsing
		// equal keys, which would otherwise under-count against the
		// catalog's (area, power) composite key.
		power := rng.Float64()*1000 - 500
		tree.Attrs[i].Power = power
		oracle.ReplaceOrInsert(btreeObjectStat(ObjectStat{NodeIndex: int32(i), Area: int32(i + 1), Power: power}))
	}
	require.Equal(t, n, oracle.Len())

	cat := NewCatalog(s)
	require.Equal(t, n, cat.Len())

	lo, hi := -200.0, 300.0

	var want []ObjectStat
	// AscendRange's upper bound is exclusive; the next float above hi makes
	// the oracle's range the same closed [lo, hi] that RangeByPower uses.
	oracle.AscendRange(btreeObjectStat(ObjectStat{Power: lo}), btreeObjectStat(ObjectStat{Power: math.Nextafter(hi, math.Inf(1))}), func(it btree.Item) bool {
		want = append(want, ObjectStat(it.(btreeObjectStat)))
		return true
	})
	sort.Slice(want, func(i, j int) bool { return want[i].NodeIndex < want[j].NodeIndex })

	got := cat.RangeByPower(lo, hi)
	sort.Slice(got, func(i, j int) bool { return got[i].NodeIndex < got[j].NodeIndex })

	assert.Equal(t, want, got)
}
