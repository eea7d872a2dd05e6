package geo

import "sort"

// Point is a planar (lat, lon) coordinate. Distances are Euclidean over the
// raw pair, not geodesic.
type Point struct {
	Lat float64
	Lon float64
}

func dist2(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}

type kdNode struct {
	idx         int
	axis        int
	left, right *kdNode
}

// Index is a static 2-d tree over a list of sites.
type Index struct {
	sites []Point
	root  *kdNode
}

func NewIndex(sites []Point) *Index {
	idx := make([]int, len(sites))
	for i := range idx {
		idx[i] = i
	}
	ix := &Index{sites: append([]Point(nil), sites...)}
	ix.root = ix.build(idx, 0)
	return ix
}

func (ix *Index) Len() int { return len(ix.sites) }

func (ix *Index) build(idx []int, depth int) *kdNode {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % 2
	sort.Slice(idx, func(i, j int) bool {
		a, b := ix.coord(idx[i], axis), ix.coord(idx[j], axis)
		if a != b {
			return a < b
		}
		return idx[i] < idx[j]
	})
	mid := len(idx) / 2
	return &kdNode{
		idx:   idx[mid],
		axis:  axis,
		left:  ix.build(idx[:mid], depth+1),
		right: ix.build(idx[mid+1:], depth+1),
	}
}

func (ix *Index) coord(i, axis int) float64 {
	if axis == 0 {
		return ix.sites[i].Lat
	}
	return ix.sites[i].Lon
}

// Nearest returns the index of the closest site and its squared distance.
// Exact ties go to the smaller site index. Returns -1 on an empty index.
func (ix *Index) Nearest(p Point) (int, float64) {
	best, bestD := -1, 0.0
	var walk func(n *kdNode)
	walk = func(n *kdNode) {
		if n == nil {
			return
		}
		d := dist2(p, ix.sites[n.idx])
		if best < 0 || d < bestD || (d == bestD && n.idx < best) {
			best, bestD = n.idx, d
		}
		var q float64
		if n.axis == 0 {
			q = p.Lat
		} else {
			q = p.Lon
		}
		diff := q - ix.coord(n.idx, n.axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		walk(near)
		// <= keeps equidistant sites on the far side reachable for the tie-break.
		if diff*diff <= bestD {
			walk(far)
		}
	}
	walk(ix.root)
	return best, bestD
}
