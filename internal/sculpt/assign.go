package sculpt

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Assignment maps each target slot to the source position placed there:
// a[targetSlot] = sourcePosition. It is always a permutation.
type Assignment []int

// IdentityAssignment leaves every pixel where it is.
func IdentityAssignment(n int) Assignment {
	a := make(Assignment, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// TotalCost sums the selected entries of cost.
func (a Assignment) TotalCost(cost mat.Matrix) float64 {
	var sum float64
	for i, j := range a {
		sum += cost.At(i, j)
	}
	return sum
}

// Assign solves the minimum-cost perfect bipartite matching on a square cost
// matrix using shortest augmenting paths with dual potentials
// (Hungarian / Jonker-Volgenant), O(n³). Ties are broken arbitrarily.
func Assign(cost mat.Matrix) (Assignment, error) {
	rows, cols := cost.Dims()
	if rows != cols {
		return nil, &SolverError{Reason: fmt.Sprintf("cost matrix is %dx%d, want square", rows, cols)}
	}
	n := rows
	if n == 0 {
		return Assignment{}, nil
	}

	c := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cost.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &SolverError{Reason: fmt.Sprintf("non-finite cost %v at (%d,%d)", v, i, j)}
			}
			c[i*n+j] = v
		}
	}

	// 1-based internally; index 0 is the virtual root column.
	inf := math.Inf(1)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j]: row matched to column j, 0 if free
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			row := c[(i0-1)*n : i0*n]
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := row[j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				return nil, &SolverError{Reason: fmt.Sprintf("no augmenting path for row %d", i-1)}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	a := make(Assignment, n)
	seen := make([]bool, n)
	for j := 1; j <= n; j++ {
		if p[j] == 0 {
			return nil, &SolverError{Reason: fmt.Sprintf("column %d left unmatched", j-1)}
		}
		a[p[j]-1] = j - 1
		seen[j-1] = true
	}
	for j, ok := range seen {
		if !ok {
			return nil, &SolverError{Reason: fmt.Sprintf("source position %d unassigned", j)}
		}
	}
	return a, nil
}

// RearrangeBlock writes the source block's pixels into the destination block
// following a. Pixels are relocated, never blended.
func RearrangeBlock(dst, src *image.NRGBA, db, sb Block, a Assignment) error {
	if db.Size != sb.Size {
		return &DimensionMismatchError{
			What: "destination block",
			Want: image.Pt(sb.Size, sb.Size),
			Got:  image.Pt(db.Size, db.Size),
		}
	}
	size := sb.Size
	if len(a) != size*size {
		return &SolverError{Reason: fmt.Sprintf("assignment has %d entries, block has %d slots", len(a), size*size)}
	}
	seen := make([]bool, len(a))
	for slot, pos := range a {
		if pos < 0 || pos >= len(a) {
			return &SolverError{Reason: fmt.Sprintf("slot %d maps to position %d outside the block", slot, pos)}
		}
		if seen[pos] {
			return &SolverError{Reason: fmt.Sprintf("source position %d assigned twice", pos)}
		}
		seen[pos] = true
	}

	srcMin, dstMin := src.Bounds().Min, dst.Bounds().Min
	for slot, pos := range a {
		ty, tx := slot/size, slot%size
		sy, sx := pos/size, pos%size
		si := src.PixOffset(srcMin.X+sb.X+sx, srcMin.Y+sb.Y+sy)
		di := dst.PixOffset(dstMin.X+db.X+tx, dstMin.Y+db.Y+ty)
		copy(dst.Pix[di:di+4], src.Pix[si:si+4])
	}
	return nil
}
