package maxtree

import (
	"github.com/mtolib/mtolib-go/pixelheap"
	"github.com/mtolib/mtolib-go/pixelstack"
)

// Build constructs a max-tree over img under the given connectivity, using
// Salembier-style flooding with level-root collapsing. See SPEC_FULL.md
// §4.C for the algorithm; this is a direct port of mtolib's mt_flood (and
// its helpers mt_queue_neighbour(s), mt_descend, mt_remaining_stack,
// mt_merge_nodes), generalized from raw pointers to arena indices.
func Build(img Image, conn Connectivity) (*Tree, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	if err := conn.validate(); err != nil {
		return nil, err
	}

	t := &Tree{
		Image:        img,
		Connectivity: conn,
		Nodes:        make([]Node, img.Size()),
		Attrs:        make([]Attributes, img.Size()),
	}
	for i := range t.Nodes {
		t.Nodes[i].Parent = Unassigned
		t.Nodes[i].Area = 1
	}

	heap := pixelheap.New()
	stack := pixelstack.New()

	startIdx := startingPixel(img)
	t.Root = startIdx
	t.Nodes[startIdx].Parent = NoParent

	start := pixelheap.Entry{Index: startIdx, Value: img.Data[startIdx]}
	heap.Push(start)
	stack.Push(pixelstack.Entry{Index: startIdx, Value: img.Data[startIdx]})

	next := start
	for !heap.Empty() {
		pixel := next

		queueNeighbours(t, heap, pixel)

		next = heap.Top()
		if next.Value > pixel.Value {
			// Ascent: keep climbing, the heap top is not popped yet.
			stack.Push(pixelstack.Entry{Index: next.Index, Value: next.Value})
			continue
		}

		popped := heap.Pop()
		top := stack.Top()
		if popped.Index != top.Index {
			t.Nodes[popped.Index].Parent = top.Index
			t.Nodes[top.Index].Area++
		}

		if heap.Empty() {
			break
		}

		next = heap.Top()
		if next.Value < popped.Value {
			// Descent: the ascent above popped's level has ended; merge it
			// down onto the (possibly new) stack top.
			descend(t, stack, next)
		}
	}

	drainStack(t, stack)

	return t, nil
}

// startingPixel returns the first-occurrence (row-major scan) global
// minimum pixel of img, matching mt_starting_pixel's tie-break.
func startingPixel(img Image) int32 {
	best := int32(0)
	bestValue := img.Data[0]
	for i, v := range img.Data {
		if v < bestValue {
			bestValue = v
			best = int32(i)
		}
	}
	return best
}

// queueNeighbours enqueues every Unassigned neighbour of pixel (scanning
// the connectivity kernel row-major, clipped to image bounds) onto heap,
// marking each InQueue as it goes. It stops as soon as a freshly queued
// neighbour's value strictly exceeds pixel.Value: the remaining neighbours
// are revisited later, when flooding descends back to this pixel's level.
// This early exit is what keeps ascending excursions depth-first.
func queueNeighbours(t *Tree, heap *pixelheap.Heap, pixel pixelheap.Entry) {
	width := int32(t.Image.Width)
	height := int32(t.Image.Height)
	x := pixel.Index % width
	y := pixel.Index / width

	conn := t.Connectivity
	radiusX := int32(conn.Width / 2)
	radiusY := int32(conn.Height / 2)

	connXMin := int32(0)
	if x < radiusX {
		connXMin = radiusX - x
	}
	connYMin := int32(0)
	if y < radiusY {
		connYMin = radiusY - y
	}

	connXMax := 2 * radiusX
	if x+radiusX >= width {
		connXMax = radiusX + width - x - 1
	}
	connYMax := 2 * radiusY
	if y+radiusY >= height {
		connYMax = radiusY + height - y - 1
	}

	kernelWidth := int32(conn.Width)
	centerX := radiusX
	centerY := radiusY

	for cy := connYMin; cy <= connYMax; cy++ {
		for cx := connXMin; cx <= connXMax; cx++ {
			if cx == centerX && cy == centerY {
				continue // centre cell is never a neighbour of itself
			}
			if conn.Kernel[cy*kernelWidth+cx] == 0 {
				continue
			}

			nx := x - radiusX + cx
			ny := y - radiusY + cy
			nIndex := ny*width + nx

			if t.Nodes[nIndex].Parent != Unassigned {
				continue
			}

			nValue := t.Image.Data[nIndex]
			t.Nodes[nIndex].Parent = InQueue
			heap.Push(pixelheap.Entry{Index: nIndex, Value: nValue})

			if nValue > pixel.Value {
				return
			}
		}
	}
}

// mergeNodes folds child's attributes (and area) into parent's, following
// the exact operation order from mtolib's mt_merge_nodes — volume is read
// twice with different meanings, so the order is significant.
func mergeNodes(t *Tree, parent, child int32) {
	delta := float64(t.Value(child) - t.Value(parent))

	t.Nodes[parent].Area += t.Nodes[child].Area

	childAttr := &t.Attrs[child]
	parentAttr := &t.Attrs[parent]

	childAttr.Power += delta * (2*childAttr.Volume + delta*float64(t.Nodes[child].Area))
	parentAttr.Power += childAttr.Power

	childAttr.Volume += delta * float64(t.Nodes[child].Area)
	parentAttr.Volume += childAttr.Volume
}

// descend pops the stack's old top, settles its parent onto the (possibly
// newly pushed) new top, and merges attributes accordingly. Mirrors
// mt_descend.
func descend(t *Tree, stack *pixelstack.Stack, next pixelheap.Entry) {
	oldTop := stack.Pop()

	top := stack.Top()
	if top.Value < next.Value {
		stack.Push(pixelstack.Entry{Index: next.Index, Value: next.Value})
		top = stack.Top()
	}

	t.Nodes[oldTop.Index].Parent = top.Index
	mergeNodes(t, top.Index, oldTop.Index)
}

// drainStack folds the remaining ascent path onto the root once flooding
// has exhausted the heap. Mirrors mt_remaining_stack.
func drainStack(t *Tree, stack *pixelstack.Stack) {
	for stack.Len() > 1 {
		oldTop := stack.Pop()
		top := stack.Top()
		t.Nodes[oldTop.Index].Parent = top.Index
		mergeNodes(t, top.Index, oldTop.Index)
	}
}
