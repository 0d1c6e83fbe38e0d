package matrix

import (
	"fmt"

	"github.com/Davincible/rss/pkg/crypto/gf256"
)

// InverseElimDepRows inverts a square matrix with Gauss–Jordan elimination,
// dropping a linearly dependent trailing row instead of failing.
//
// The result is always R×R. When the last row turns out to be dependent the
// effective order drops to R-1: the leading (R-1)×(R-1) block holds the
// inverse of the input's leading block, while the dropped row of the result
// is all zeros. Use InverseElimDepRowsOrder to learn the effective order.
// A 1×1 zero matrix has nothing left to invert and returns ErrSingular.
func (m *Matrix) InverseElimDepRows() (*Matrix, error) {
	inv, _, err := m.InverseElimDepRowsOrder()
	return inv, err
}

// InverseElimDepRowsOrder is InverseElimDepRows that also reports the
// effective order of the inversion.
func (m *Matrix) InverseElimDepRowsOrder() (*Matrix, int, error) {
	if m.rows != m.cols {
		return nil, 0, fmt.Errorf("%w: cannot invert %dx%d matrix", ErrShape, m.rows, m.cols)
	}

	work := m.cloneRows()
	inv := identityRows(m.rows)
	order := m.rows

	for i := 0; i < order; i++ {
		if work[i][i] == 0 {
			pivot := -1
			for j := i + 1; j < order; j++ {
				if work[j][i] != 0 {
					pivot = j
					break
				}
			}

			switch {
			case pivot >= 0:
				work[i], work[pivot] = work[pivot], work[i]
				inv[i], inv[pivot] = inv[pivot], inv[i]
			case i == order-1:
				// Dependent trailing row: shrink the order and leave the row zeroed.
				order--
				clear(work[i])
				clear(inv[i])
				continue
			default:
				return nil, 0, fmt.Errorf("%w: no pivot in column %d of %d", ErrSingular, i, m.rows)
			}
		}

		coefInv, err := gf256.Inv(work[i][i])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		scaleRow(work[i], coefInv)
		scaleRow(inv[i], coefInv)

		for j := 0; j < order; j++ {
			if j == i {
				continue
			}
			if coef := work[j][i]; coef != 0 {
				addScaledRow(work[j], work[i], coef)
				addScaledRow(inv[j], inv[i], coef)
			}
		}
	}

	if order == 0 {
		return nil, 0, fmt.Errorf("%w: 1x1 zero matrix", ErrSingular)
	}

	return &Matrix{rows: m.rows, cols: m.rows, data: inv}, order, nil
}

func scaleRow(row []byte, factor byte) {
	for i := range row {
		row[i] = gf256.Mul(row[i], factor)
	}
}

// addScaledRow adds factor·src to dst in place.
func addScaledRow(dst, src []byte, factor byte) {
	for i := range dst {
		dst[i] = gf256.Add(dst[i], gf256.Mul(src[i], factor))
	}
}
