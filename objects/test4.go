package objects

import (
	"fmt"
	"math"
)

// Direction identifies which way a SignificanceTest expects the selector to
// walk RelevantIndices while testing nodes.
type Direction int

const (
	// Up walks RelevantIndices in ascending image-value order (parents
	// before children), the direction Test4 requires so a node's closest
	// significant ancestor is always resolved before the node itself is
	// tested.
	Up Direction = iota
	// Down would walk in descending order. The reference implementation's
	// mt_significant_nodes_down has a loop condition that never executes
	// (i starts at len-1 with the loop test i < 0), so it is dead code.
	// Per that finding, no corrected descending walk is wired into
	// Detect; Down exists only to document the intended contract
	// for a future, explicitly-requested implementation.
	Down
)

const (
	test4Alpha   = 1e-6
	test4MaxArea = 4087

	test4P1 = 1.683355084690155e-01
	test4P2 = 3.770229379757511e+02
	test4P3 = 1.176722049258011e+05
	test4P4 = 6.239836661965291e+06
	test4Q1 = 1.354265276841128e+03
	test4Q2 = 2.091126298053044e+05
	test4Q3 = 1.424803575269314e+06
)

// SignificanceTest is the pluggable node-significance predicate the
// selector's significance walk (§4.E step 2) calls through. Implementations
// own whatever parameter state they need directly; unlike the C original's
// void* context plus paired destructor, Go's garbage collector retires it
// when the test value does.
type SignificanceTest interface {
	// Evaluate reports whether node n of s's tree is statistically
	// significant.
	Evaluate(s *Selector, n int32) bool
	// Direction reports which way this test expects RelevantIndices to be
	// walked. The selector does not read it: its significance walk always
	// runs Up.
	Direction() Direction
}

// Test4 is the default significance test (mt_node_test_4): alternative
// power normalized by noise variance and area, compared against a
// Padé-style rejection threshold tabulated for alpha = 1e-6.
type Test4 struct {
	MinDistance float64
}

// NewTest4 builds the default test. alpha must be exactly 1e-6: the
// rejection boundary below is tabulated only for that significance level,
// and any other value is rejected up front rather than silently misapplied.
func NewTest4(alpha, minDistance float64) (*Test4, error) {
	if alpha != test4Alpha {
		return nil, fmt.Errorf("objects: significance test 4 only supports alpha = 1e-6, got %v", alpha)
	}
	return &Test4{MinDistance: minDistance}, nil
}

// Direction implements SignificanceTest.
func (t *Test4) Direction() Direction { return Up }

// Evaluate implements SignificanceTest, following §4.E's "Node significance
// test" steps exactly.
func (t *Test4) Evaluate(s *Selector, n int32) bool {
	variance := s.NoiseVariance(n, NoMaxDistance)

	if t.MinDistance > 0 && s.Distance(n)/math.Sqrt(variance) < t.MinDistance {
		return false
	}

	power := s.AlternativePower(n, NoMaxDistance)
	area := s.Tree.Nodes[n].Area

	powerNormalized := power / variance / float64(area)

	if area > test4MaxArea {
		area = test4MaxArea
	}

	a := float64(area)
	a2 := a * a
	a3 := a2 * a

	x := test4P1*a3 + test4P2*a2 + test4P3*a + test4P4
	x /= a3 + test4Q1*a2 + test4Q2*a + test4Q3

	return powerNormalized > x
}
