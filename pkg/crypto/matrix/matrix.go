// Package matrix provides matrices over GF(256) with the operations needed to
// solve Vandermonde systems during share reconstruction.
package matrix

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/Davincible/rss/pkg/crypto/gf256"
)

var (
	// ErrShape is returned when matrix or vector dimensions do not fit the operation.
	ErrShape = errors.New("matrix: shape mismatch")
	// ErrFormat is returned for malformed encodings or out-of-field elements.
	ErrFormat = errors.New("matrix: malformed input")
	// ErrSingular is returned when the matrix cannot be inverted even after
	// dropping a dependent trailing row.
	ErrSingular = errors.New("matrix: singular")
)

// headerSize is the length of the little-endian column count that prefixes
// an encoded matrix.
const headerSize = 4

// Matrix is an immutable R×C matrix over GF(256), stored row-major.
type Matrix struct {
	rows int
	cols int
	data [][]byte
}

// New builds a matrix from a grid of integers in [0, 255].
func New(grid [][]int) (*Matrix, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrShape)
	}

	cols := len(grid[0])
	data := make([][]byte, len(grid))
	for i, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShape, i, len(row), cols)
		}
		data[i] = make([]byte, cols)
		for j, v := range row {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: element (%d,%d)=%d is not a field element", ErrFormat, i, j, v)
			}
			data[i][j] = byte(v)
		}
	}

	return &Matrix{rows: len(grid), cols: cols, data: data}, nil
}

// FromRows builds a matrix from byte rows. The rows are copied.
func FromRows(rows [][]byte) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrShape)
	}

	cols := len(rows[0])
	data := make([][]byte, len(rows))
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShape, i, len(row), cols)
		}
		data[i] = append([]byte(nil), row...)
	}

	return &Matrix{rows: len(rows), cols: cols, data: data}, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	return &Matrix{rows: n, cols: n, data: identityRows(n)}
}

// Vandermonde returns the len(xs)×cols matrix whose row i is
// [1, xs[i], xs[i]^2, ..., xs[i]^(cols-1)].
func Vandermonde(xs []byte, cols int) *Matrix {
	data := make([][]byte, len(xs))
	for i, x := range xs {
		row := make([]byte, cols)
		for j := range row {
			row[j] = gf256.Exp(x, j)
		}
		data[i] = row
	}
	return &Matrix{rows: len(xs), cols: cols, data: data}
}

// Decode parses the canonical encoding produced by Encode: a 4-byte
// little-endian column count followed by the elements in row-major order.
func Decode(encoded []byte) (*Matrix, error) {
	if len(encoded) <= headerSize {
		return nil, fmt.Errorf("%w: encoding too short (%d bytes)", ErrFormat, len(encoded))
	}

	cols := binary.LittleEndian.Uint32(encoded[:headerSize])
	body := encoded[headerSize:]
	if cols == 0 || uint64(cols) > uint64(len(body)) || uint64(len(body))%uint64(cols) != 0 {
		return nil, fmt.Errorf("%w: %d element bytes do not fill rows of %d columns", ErrFormat, len(body), cols)
	}

	rows := len(body) / int(cols)
	data := make([][]byte, rows)
	for i := range data {
		data[i] = append([]byte(nil), body[i*int(cols):(i+1)*int(cols)]...)
	}

	return &Matrix{rows: rows, cols: int(cols), data: data}, nil
}

// Encode returns the canonical byte encoding of the matrix.
func (m *Matrix) Encode() []byte {
	out := make([]byte, headerSize, headerSize+m.rows*m.cols)
	binary.LittleEndian.PutUint32(out, uint32(m.cols))
	for _, row := range m.data {
		out = append(out, row...)
	}
	return out
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) byte { return m.data[i][j] }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []byte {
	return append([]byte(nil), m.data[i]...)
}

// Equal reports whether both matrices have the same shape and elements.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := range m.data {
		for j := range m.data[i] {
			if m.data[i][j] != other.data[i][j] {
				return false
			}
		}
	}
	return true
}

// RightMultiply computes m·v. Only square matrices are supported and v must
// have one entry per row.
func (m *Matrix) RightMultiply(v []byte) ([]byte, error) {
	if len(v) != m.rows || len(v) != m.cols {
		return nil, fmt.Errorf("%w: %dx%d matrix times vector of length %d", ErrShape, m.rows, m.cols, len(v))
	}

	result := make([]byte, len(v))
	for i := range v {
		var acc byte
		for j := range v {
			acc = gf256.Add(acc, gf256.Mul(m.data[i][j], v[j]))
		}
		result[i] = acc
	}
	return result, nil
}

// Mul returns the product m·other.
func (m *Matrix) Mul(other *Matrix) (*Matrix, error) {
	if m.cols != other.rows {
		return nil, fmt.Errorf("%w: %dx%d times %dx%d", ErrShape, m.rows, m.cols, other.rows, other.cols)
	}

	data := make([][]byte, m.rows)
	for i := range data {
		data[i] = make([]byte, other.cols)
		for j := 0; j < other.cols; j++ {
			var acc byte
			for k := 0; k < m.cols; k++ {
				acc = gf256.Add(acc, gf256.Mul(m.data[i][k], other.data[k][j]))
			}
			data[i][j] = acc
		}
	}
	return &Matrix{rows: m.rows, cols: other.cols, data: data}, nil
}

// Submatrix returns the leading n×n block.
func (m *Matrix) Submatrix(n int) (*Matrix, error) {
	if n <= 0 || n > m.rows || n > m.cols {
		return nil, fmt.Errorf("%w: cannot take %dx%d block of %dx%d", ErrShape, n, n, m.rows, m.cols)
	}
	data := make([][]byte, n)
	for i := range data {
		data[i] = append([]byte(nil), m.data[i][:n]...)
	}
	return &Matrix{rows: n, cols: n, data: data}, nil
}

// String renders the matrix one row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i, row := range m.data {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%3d", v)
		}
	}
	return sb.String()
}

func identityRows(n int) [][]byte {
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = make([]byte, n)
		rows[i][i] = 1
	}
	return rows
}

func (m *Matrix) cloneRows() [][]byte {
	rows := make([][]byte, m.rows)
	for i, row := range m.data {
		rows[i] = append([]byte(nil), row...)
	}
	return rows
}
