package treemap

import "math"

// Phi is the golden ratio, the default target aspect ratio for squarified rows.
var Phi = (1 + math.Sqrt(5)) / 2

// squarify tiles parent.Children into the rectangle (x0,y0)-(x1,y1).
//
// Children are consumed in order and packed into rows. A row grows while
// adding the next child does not worsen its worst aspect ratio relative to
// ratio. Rows alternate between horizontal strips (dice) and vertical strips
// (slice) depending on which side of the remaining space is shorter.
func squarify(ratio float64, parent *Cell, x0, y0, x1, y1 float64) {
	nodes := parent.Children
	n := len(nodes)
	value := parent.Value
	if value <= 0 || x1 <= x0 || y1 <= y0 {
		for _, c := range nodes {
			c.Rect = Rect{X0: x0, Y0: y0, X1: x0, Y1: y0}
		}
		return
	}

	i0, i1 := 0, 0
	for i0 < n {
		dx, dy := x1-x0, y1-y0

		sum := nodes[i1].Value
		i1++
		for sum == 0 && i1 < n {
			sum = nodes[i1].Value
			i1++
		}
		minV, maxV := sum, sum
		alpha := math.Max(dy/dx, dx/dy) / (value * ratio)
		beta := sum * sum * alpha
		minRatio := math.Max(maxV/beta, beta/minV)

		for ; i1 < n; i1++ {
			v := nodes[i1].Value
			sum += v
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
			beta = sum * sum * alpha
			r := math.Max(maxV/beta, beta/minV)
			if r > minRatio {
				sum -= v
				break
			}
			minRatio = r
		}

		row := nodes[i0:i1]
		if dx < dy {
			ny := y1
			if value > 0 {
				ny = y0 + dy*sum/value
			}
			dice(row, sum, x0, y0, x1, ny)
			y0 = ny
		} else {
			nx := x1
			if value > 0 {
				nx = x0 + dx*sum/value
			}
			slice(row, sum, x0, y0, nx, y1)
			x0 = nx
		}
		value -= sum
		i0 = i1
	}
}

// dice lays cells side by side along x.
func dice(cells []*Cell, total, x0, y0, x1, y1 float64) {
	k := 0.0
	if total > 0 {
		k = (x1 - x0) / total
	}
	for _, c := range cells {
		c.Y0, c.Y1 = y0, y1
		c.X0 = x0
		x0 += c.Value * k
		c.X1 = x0
	}
}

// slice stacks cells along y.
func slice(cells []*Cell, total, x0, y0, x1, y1 float64) {
	k := 0.0
	if total > 0 {
		k = (y1 - y0) / total
	}
	for _, c := range cells {
		c.X0, c.X1 = x0, x1
		c.Y0 = y0
		y0 += c.Value * k
		c.Y1 = y0
	}
}
