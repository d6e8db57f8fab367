// Package objects implements object detection over a built max-tree
// (maxtree.Tree): the noise model and significance test of §4.D, and the
// selection pipeline of §4.E that elects a disjoint set of "objects" and
// stamps a per-pixel label map.
package objects

import "fmt"

// Parameters bundles the tunables that control detection — mt_parameters in
// the original: background variance, gain, move-up factor, significance
// level, and minimum normalized distance.
type Parameters struct {
	BgVariance     float64 `yaml:"bg_variance"`
	Gain           float64 `yaml:"gain"`
	MoveFactor     float64 `yaml:"move_factor"`
	Alpha          float64 `yaml:"alpha"`
	MinDistance    float64 `yaml:"min_distance"`
	VerbosityLevel int     `yaml:"verbosity_level"`
}

// Validate checks the parameter bundle against the invariants mt_objects
// asserts before allocating anything: a non-positive BgVariance or Gain, a
// negative MoveFactor, or a negative MinDistance are all rejected here,
// surfaced as a typed error rather than a fatal assertion.
func (p Parameters) Validate() error {
	if p.BgVariance <= 0 {
		return fmt.Errorf("objects: bg_variance must be positive, got %v", p.BgVariance)
	}
	if p.Gain <= 0 {
		return fmt.Errorf("objects: gain must be positive, got %v", p.Gain)
	}
	if p.MoveFactor < 0 {
		return fmt.Errorf("objects: move_factor must be non-negative, got %v", p.MoveFactor)
	}
	if p.MinDistance < 0 {
		return fmt.Errorf("objects: min_distance must be non-negative, got %v", p.MinDistance)
	}
	return nil
}
