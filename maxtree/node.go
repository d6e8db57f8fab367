package maxtree

// Sentinel values for Tree.Parent. These numeric values are part of the
// external contract (§6 of the spec) and must never change.
const (
	Unassigned int32 = -1 // not yet visited by the builder
	InQueue    int32 = -2 // seen, queued, but not yet settled
	NoParent   int32 = -3 // the tree root
)

// NoObject is the sentinel object id meaning "no detected object covers
// this pixel". It shares its numeric value with Unassigned by convention
// of the original implementation, but lives in the objects package's
// id space, not the node's parent space.
const NoObject int32 = -1

// Node is the per-pixel max-tree node: its settled parent and its subtree
// pixel count.
type Node struct {
	Parent int32
	Area   int32
}

// Attributes holds the per-node aggregate statistics accumulated during
// flooding, relative to the node's own pixel value. When Build merges a
// node into its parent, the merge shifts that node's values to be relative
// to the parent's pixel value, and they stay so once Build returns (see
// maxtree.Build's merge step for the accumulation recurrence).
type Attributes struct {
	Volume float64
	Power  float64
}

// Tree is the built max-tree: a parent-pointer forest over Image's pixels,
// stored as parallel arenas rather than pointers, plus the per-node
// attributes. It is produced once by Build and is immutable for the rest of
// its lifetime.
type Tree struct {
	Image        Image
	Connectivity Connectivity
	Nodes        []Node
	Attrs        []Attributes
	Root         int32
}

// IsRoot reports whether i is the tree's single root node.
func (t *Tree) IsRoot(i int32) bool {
	return i == t.Root
}

// Value returns the image value of node i.
func (t *Tree) Value(i int32) float32 {
	return t.Image.Data[i]
}
