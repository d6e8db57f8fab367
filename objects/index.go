package objects

import (
	"fmt"
	"math"

	radix "github.com/armon/go-radix"
)

// ObjectStat is one catalog entry: an elected object's node index and the
// statistics that define its catalog key.
type ObjectStat struct {
	NodeIndex int32
	Area      int32
	Power     float64
}

// Catalog is a range-queryable index over a Result's elected objects, keyed
// by (area, power), so a downstream consumer can ask "objects with power in
// [a, b]" without a linear scan of the label map. It is a supplemental
// convenience (component G) not present in the distilled spec, built the
// way the teacher's stream package indexes keys: parse the numeric parts,
// zero-pad into a fixed-width, lexicographically-sortable digit string, and
// push every value out to a leaf of a compressed radix tree.
type Catalog struct {
	tree *radix.Tree
}

// NewCatalog builds a Catalog from the nodes a Selector elected as objects.
// Call it with the Selector returned by DetectSelector (or after driving
// the same Selector through its pipeline directly).
func NewCatalog(s *Selector) *Catalog {
	c := &Catalog{tree: radix.New()}

	tree := s.Tree
	size := tree.Image.Size()
	for i := int32(0); i != size; i++ {
		if !s.IsObject(i) {
			continue
		}

		stat := ObjectStat{
			NodeIndex: i,
			Area:      tree.Nodes[i].Area,
			Power:     tree.Attrs[i].Power,
		}
		c.tree.Insert(catalogKey(stat.Area, stat.Power), stat)
	}

	return c
}

// catalogKey builds a fixed-width key from a non-negative area and power.
// Power is a sum of squared deviations and is therefore never negative, so
// its IEEE-754 bit pattern is monotonic in value; zero-padding those bits as
// decimal digits (rather than the string's natural byte order) preserves
// numeric order lexicographically, the same "push values out to the leaves"
// trick the teacher's stream radix tree applies to its (left, right) id
// pairs, generalized here to (area, power).
func catalogKey(area int32, power float64) string {
	return fmt.Sprintf("%020d-%020d", area, math.Float64bits(power))
}

// Len reports the number of catalogued objects.
func (c *Catalog) Len() int { return c.tree.Len() }

// Lookup returns the catalog entry for the given (area, power) key, if one
// was inserted with exactly that area and power.
func (c *Catalog) Lookup(area int32, power float64) (ObjectStat, bool) {
	v, ok := c.tree.Get(catalogKey(area, power))
	if !ok {
		return ObjectStat{}, false
	}
	return v.(ObjectStat), true
}

// RangeByPower returns every catalogued object whose power lies in
// [minPower, maxPower].
func (c *Catalog) RangeByPower(minPower, maxPower float64) []ObjectStat {
	var out []ObjectStat
	c.tree.Walk(func(_ string, v interface{}) bool {
		stat := v.(ObjectStat)
		if stat.Power >= minPower && stat.Power <= maxPower {
			out = append(out, stat)
		}
		return false
	})
	return out
}
