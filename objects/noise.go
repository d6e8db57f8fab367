package objects

import (
	"math"

	"github.com/mtolib/mtolib-go/maxtree"
)

// NoMaxDistance disables the normalized-distance clip in NoiseVariance and
// AlternativePower; MT_NO_MAX_DISTANCE in the original.
const NoMaxDistance = -1.0

// hasSignificantAncestor reports whether node i has a closest significant
// ancestor on record.
func (s *Selector) hasSignificantAncestor(i int32) bool {
	return s.ClosestSignificantAncestors[i] != maxtree.NoParent
}

// Distance is MT_DISTANCE(i): the node's pixel value above its closest
// significant ancestor, or the raw pixel value when it has none.
func (s *Selector) Distance(i int32) float64 {
	v := float64(s.Tree.Value(i))
	if s.hasSignificantAncestor(i) {
		return v - float64(s.Tree.Value(s.ClosestSignificantAncestors[i]))
	}
	return v
}

// NoiseVariance computes the local noise variance at node i (§4.D): a base
// term from BgVariance and the closest significant ancestor's brightness
// over Gain, optionally clipped so the node's normalized distance never
// exceeds maxNormDist. Pass NoMaxDistance to disable clipping.
func (s *Selector) NoiseVariance(i int32, maxNormDist float64) float64 {
	p := s.Params
	variance := p.BgVariance
	if s.hasSignificantAncestor(i) {
		variance += float64(s.Tree.Value(s.ClosestSignificantAncestors[i])) / p.Gain
	}

	if maxNormDist >= 0 {
		distance := s.Distance(i)
		rms := math.Sqrt(variance)

		if distance/rms > maxNormDist {
			d2 := maxNormDist * maxNormDist
			gain2 := p.Gain * p.Gain
			b := 2 * float64(s.Tree.Value(i)) * p.Gain

			f := b + d2 - maxNormDist*math.Sqrt(4*p.BgVariance*gain2+2*b+d2)
			f /= 2 * p.Gain

			variance = f/p.Gain + p.BgVariance
		}
	}

	return variance
}

// AlternativePower computes the power node i's subtree would have if
// measured relative to its closest significant ancestor (or absolute zero
// when it has none), with the same optional distance clipping as
// NoiseVariance. Mirrors mt_alternative_power_definition.
func (s *Selector) AlternativePower(i int32, maxNormDist float64) float64 {
	tree := s.Tree
	node := tree.Nodes[i]
	attr := tree.Attrs[i]
	parentVal := float64(tree.Value(node.Parent))

	var delta float64
	if s.hasSignificantAncestor(i) {
		delta = parentVal - float64(tree.Value(s.ClosestSignificantAncestors[i]))
	} else {
		delta = parentVal
	}

	if maxNormDist >= 0 {
		rms := math.Sqrt(s.NoiseVariance(i, maxNormDist))
		distance := s.Distance(i)

		if distance/rms > maxNormDist {
			delta = maxNormDist*rms - parentVal
		}
	}

	return attr.Power + delta*(2*attr.Volume+delta*float64(node.Area))
}
