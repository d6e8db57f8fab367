package objects

import (
	"fmt"
	"math"

	"github.com/mtolib/mtolib-go/maxtree"
	"github.com/mtolib/mtolib-go/pixelheap"
)

// Flag bits packed into Selector.flags, one byte per node — mirrors the
// original's MT_SET_*/MT_* macros over a single uint8 rather than exploding
// to seven parallel bool slices (§9's design note: the memory saving matters
// at multi-megapixel frame sizes).
const (
	flagSignificant uint8 = 1 << iota
	flagCheckedForSignificantAncestor
	flagHaveSignificantDescendant
	flagObject
	flagHaveDescendant
	flagDontMove
	flagCheckedForObject
)

// Result is the label map and summary counts produced by Detect.
type Result struct {
	ObjectIDs           []int32
	NumSignificantNodes int32
	NumObjects          int32
	NumObjectsNested    int32
}

// Selector carries the object-selection state (§3's "object-selection
// state"): parallel arrays over the tree's nodes that it exclusively owns
// and mutates. It reads the Tree built by maxtree.Build but never mutates
// it, per the tree's built-once-read-many-times contract.
type Selector struct {
	Tree   *maxtree.Tree
	Params Parameters
	Test   SignificanceTest

	flags                       []uint8
	ClosestSignificantAncestors []int32
	MainBranches                []int32
	MainPowerBranches           []int32
	ObjectIDs                   []int32
	RelevantIndices             []int32

	NumSignificantNodes int32
	NumObjects          int32
	NumObjectsNested    int32
}

// NewSelector allocates a Selector's arrays over tree and validates params
// and test, matching the assertions mt_objects makes before mt_objects_init
// runs. It does not run the pipeline; call Detect for that.
func NewSelector(tree *maxtree.Tree, params Parameters, test SignificanceTest) (*Selector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if test == nil {
		return nil, fmt.Errorf("objects: significance test must not be nil")
	}

	n := len(tree.Nodes)
	s := &Selector{
		Tree:   tree,
		Params: params,
		Test:   test,

		flags:                       make([]uint8, n),
		ClosestSignificantAncestors: make([]int32, n),
		MainBranches:                make([]int32, n),
		MainPowerBranches:           make([]int32, n),
		ObjectIDs:                   make([]int32, n),
	}
	for i := range s.ClosestSignificantAncestors {
		s.ClosestSignificantAncestors[i] = maxtree.NoParent
	}
	return s, nil
}

// Detect runs the full object-selection pipeline (§4.E steps 1-6) over
// tree and returns the resulting label map and summary counts. This is the
// package's main entry point, corresponding to mt_objects.
func Detect(tree *maxtree.Tree, params Parameters, test SignificanceTest) (*Result, error) {
	_, result, err := DetectSelector(tree, params, test)
	return result, err
}

// DetectSelector runs the same pipeline as Detect but also returns the
// Selector it ran on, so a caller that needs more than the summary Result -
// NewCatalog, in particular, needs IsObject per node - doesn't have to
// rebuild that state from scratch.
func DetectSelector(tree *maxtree.Tree, params Parameters, test SignificanceTest) (*Selector, *Result, error) {
	s, err := NewSelector(tree, params, test)
	if err != nil {
		return nil, nil, err
	}

	s.collectRelevantNodes()
	s.walkSignificance()
	s.findObjects()

	if params.MoveFactor != 0 {
		s.mainPowerBranches()
		s.moveUp()
	}

	s.stampObjectIDs()

	return s, &Result{
		ObjectIDs:           s.ObjectIDs,
		NumSignificantNodes: s.NumSignificantNodes,
		NumObjects:          s.NumObjects,
		NumObjectsNested:    s.NumObjectsNested,
	}, nil
}

func (s *Selector) isSignificant(i int32) bool { return s.flags[i]&flagSignificant != 0 }
func (s *Selector) setSignificant(i int32)     { s.flags[i] |= flagSignificant }

// IsObject reports whether node i survived as an elected object.
func (s *Selector) IsObject(i int32) bool { return s.flags[i]&flagObject != 0 }

// collectRelevantNodes is step 1: push every level root onto a fresh heap,
// then drain it into RelevantIndices sorted ascending by image value
// (filling from the back), so a single linear pass over RelevantIndices
// visits parents before children. Mirrors mt_relevant_nodes.
func (s *Selector) collectRelevantNodes() {
	tree := s.Tree
	img := tree.Image

	heap := pixelheap.New()

	for y := int16(0); y != img.Height; y++ {
		for x := int16(0); x != img.Width; x++ {
			i := int32(y)*int32(img.Width) + int32(x)
			parent := tree.Nodes[i].Parent

			if tree.IsRoot(i) || img.Data[parent] == img.Data[i] {
				continue
			}

			heap.Push(pixelheap.Entry{Index: i, Value: img.Data[i]})
		}
	}

	n := heap.Len()
	s.RelevantIndices = make([]int32, n)
	for i := n - 1; i >= 0; i-- {
		s.RelevantIndices[i] = heap.Pop().Index
	}
}

// walkSignificance is step 2: establish each relevant node's closest
// significant ancestor, test it, and on success update its ancestor's main
// branch. Mirrors mt_significant_nodes_up; the selector only ever walks up
// (Test4's Direction), see Direction's doc comment for why down is dormant.
func (s *Selector) walkSignificance() {
	tree := s.Tree
	var numSignificant int32

	for _, n := range s.RelevantIndices {
		parent := tree.Nodes[n].Parent

		if s.isSignificant(parent) {
			s.ClosestSignificantAncestors[n] = parent
		} else if s.hasSignificantAncestor(parent) {
			s.ClosestSignificantAncestors[n] = s.ClosestSignificantAncestors[parent]
		}

		if s.Test.Evaluate(s, n) {
			s.setSignificant(n)
			numSignificant++
			s.updateMainBranch(n)
		}
	}

	s.NumSignificantNodes = numSignificant
}

// updateMainBranch records n as its closest significant ancestor's main
// branch when n has no sibling recorded yet, or replaces the recorded
// sibling when n's area is strictly larger. Mirrors
// mt_update_parent_main_branch.
func (s *Selector) updateMainBranch(n int32) {
	if !s.hasSignificantAncestor(n) {
		return
	}
	ancestor := s.ClosestSignificantAncestors[n]

	if s.flags[ancestor]&flagHaveSignificantDescendant != 0 {
		if s.Tree.Nodes[s.MainBranches[ancestor]].Area < s.Tree.Nodes[n].Area {
			s.MainBranches[ancestor] = n
		}
		return
	}

	s.flags[ancestor] |= flagHaveSignificantDescendant
	s.MainBranches[ancestor] = n
}

// findObjects is step 3: mark every significant node without a significant
// ancestor as a top-level object, and every significant node that is not
// its closest significant ancestor's main branch as a nested object.
// Mirrors mt_find_objects.
func (s *Selector) findObjects() {
	tree := s.Tree
	var numObjects, numNested int32

	size := tree.Image.Size()
	for i := int32(0); i != size; i++ {
		if !s.isSignificant(i) {
			continue
		}

		if !s.hasSignificantAncestor(i) {
			numObjects++
			s.flags[i] |= flagObject
			continue
		}

		ancestor := s.ClosestSignificantAncestors[i]
		if s.MainBranches[ancestor] != i {
			numNested++
			s.flags[i] |= flagObject
		}
	}

	s.NumObjects = numObjects + numNested
	s.NumObjectsNested = numNested
}

// mainPowerBranches is step 4: for each non-root node, record the
// descendant of its parent with the largest power, over *all* descendants
// (not only significant ones). Mirrors mt_main_power_branches.
func (s *Selector) mainPowerBranches() {
	tree := s.Tree
	size := tree.Image.Size()

	for i := int32(0); i != size; i++ {
		if tree.IsRoot(i) {
			continue
		}
		parent := tree.Nodes[i].Parent

		if s.flags[parent]&flagHaveDescendant != 0 {
			if tree.Attrs[s.MainPowerBranches[parent]].Power < tree.Attrs[i].Power {
				s.MainPowerBranches[parent] = i
			}
			continue
		}

		s.flags[parent] |= flagHaveDescendant
		s.MainPowerBranches[parent] = i
	}
}

// moveUp is step 5, active only when MoveFactor != 0: relocate each object
// marker deeper into the tree by a brightness offset derived from the noise
// model, descending through main branches (preferred) or main power
// branches (fallback) until the current node's value clears the computed
// base or a leaf is reached. Mirrors mt_move_up.
func (s *Selector) moveUp() {
	tree := s.Tree
	size := tree.Image.Size()

	for i := int32(0); i != size; i++ {
		if !s.IsObject(i) || s.flags[i]&flagDontMove != 0 {
			continue
		}

		s.flags[i] &^= flagObject

		baseRaw := float64(tree.Value(i)) - s.Distance(i)
		base := baseRaw + s.Params.MoveFactor*math.Sqrt(math.Max(0, baseRaw)/s.Params.Gain+s.Params.BgVariance)

		next := i
		for float64(tree.Value(next)) < base {
			if s.flags[next]&flagHaveSignificantDescendant != 0 {
				next = s.MainBranches[next]
			} else if s.flags[next]&flagHaveDescendant != 0 {
				next = s.MainPowerBranches[next]
			} else {
				break
			}
		}

		s.flags[next] |= flagObject
		s.flags[next] |= flagDontMove
	}
}

// stampObjectIDs is step 6: for every pixel, walk its parent chain until it
// hits the root, an already-marked object, or an already-checked node, then
// back-fill every pixel on that walk with the terminal object's id (or
// NoObject). Mirrors mt_object_ids.
func (s *Selector) stampObjectIDs() {
	tree := s.Tree
	size := tree.Image.Size()

	for i := int32(0); i != size; i++ {
		if s.flags[i]&flagCheckedForObject != 0 {
			continue
		}

		next := i
		for next != maxtree.NoParent &&
			s.flags[next]&flagObject == 0 &&
			s.flags[next]&flagCheckedForObject == 0 {
			s.flags[next] |= flagCheckedForObject
			next = tree.Nodes[next].Parent
		}

		var objectID, endIdx int32
		switch {
		case next == maxtree.NoParent:
			objectID = maxtree.NoObject
			endIdx = next
		case s.flags[next]&flagCheckedForObject != 0:
			objectID = s.ObjectIDs[next]
			endIdx = next
		case s.flags[next]&flagObject != 0:
			objectID = next
			endIdx = tree.Nodes[next].Parent
			s.flags[next] |= flagCheckedForObject
		default:
			// Unreachable: the walk above only stops at NoParent, a
			// checked node, or an object (§9's open question on
			// objectID/endIdx initialisation). Proven, not assumed.
			panic(fmt.Sprintf("objects: id-stamping left node %d in an impossible state", next))
		}

		next = i
		for {
			s.ObjectIDs[next] = objectID
			next = tree.Nodes[next].Parent
			if next == endIdx {
				break
			}
		}
	}
}
