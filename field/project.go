package field

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// 2D closest-point queries against a triangle projected into its own
// plane. The feature identifies which pseudonormal the sign test
// must use.

type triangleFeature int

const (
	featureV0 triangleFeature = iota
	featureV1
	featureV2
	featureE0
	featureE1
	featureE2
	featureFace
)

// closestOnTriangle2 returns the point of the triangle closest to p
// and the feature (vertex, edge or face interior) it lies on.
func closestOnTriangle2(p r2.Vec, tri [3]r2.Vec) (onTriangle r2.Vec, feature triangleFeature) {
	if inTriangle(p, tri) {
		return p, featureFace
	}
	minDist2 := math.MaxFloat64
	for j := range tri {
		edge := [2]r2.Vec{tri[j], tri[(j+1)%3]}
		toEdge, off := distToSegment(p, edge)
		d2 := r2.Norm2(toEdge)
		if d2 < minDist2 {
			if off < 2 {
				// Closest to segment endpoint: vertex j or j+1.
				feature = triangleFeature((j + off) % 3)
			} else {
				feature = featureE0 + triangleFeature(j)%3
			}
			minDist2 = d2
			onTriangle = r2.Sub(p, toEdge)
		}
	}
	return onTriangle, feature
}

// inTriangle returns true if pt lies inside or on the triangle.
func inTriangle(pt r2.Vec, tri [3]r2.Vec) bool {
	d1 := orient(pt, tri[0], tri[1])
	d2 := orient(pt, tri[1], tri[2])
	d3 := orient(pt, tri[2], tri[0])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func orient(p1, p2, p3 r2.Vec) float64 {
	return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
}

// distToSegment returns the vector from the segment's closest point
// to p. The integer is the endpoint offset when the closest point is
// an endpoint (0 for seg[0], 1 for seg[1]) and 2 for the interior.
func distToSegment(p r2.Vec, seg [2]r2.Vec) (r2.Vec, int) {
	dir := r2.Sub(seg[1], seg[0])
	perp := r2.Vec{X: -dir.Y, Y: dir.X}
	if edgeEquation(p, [2]r2.Vec{seg[1], r2.Add(seg[1], perp)}) > 0 {
		return r2.Sub(p, seg[1]), 1
	}
	if edgeEquation(p, [2]r2.Vec{seg[0], r2.Add(seg[0], perp)}) < 0 {
		return r2.Sub(p, seg[0]), 0
	}
	d := distToLine(p, seg)
	return r2.Scale(-d, r2.Unit(perp)), 2
}

// distToLine returns the unsigned distance from p to the infinite
// line through the two points.
func distToLine(p r2.Vec, line [2]r2.Vec) float64 {
	p1, p2 := line[0], line[1]
	num := math.Abs((p2.X-p1.X)*(p1.Y-p.Y) - (p1.X-p.X)*(p2.Y-p1.Y))
	return num / math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// edgeEquation returns a signed area measure of p against the
// infinite line through the two points.
func edgeEquation(p r2.Vec, line [2]r2.Vec) float64 {
	d := r2.Sub(line[1], line[0])
	return (p.X-line[0].X)*d.Y - (p.Y-line[0].Y)*d.X
}
