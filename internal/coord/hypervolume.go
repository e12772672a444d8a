package coord

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hypervolume estimates the volume spanned by a ring's candidate point set:
// subtract the last row from every row, QR-decompose the result to get Q,
// form Q·Mᵀ, drop its last column, and take the square root of the Gram
// determinant of the edge vectors from the last reduced row to every other
// one: the parallelotope volume those points span ((n-1)! times their
// simplex volume). m must be square, since Q is rows×rows and Q·Mᵀ needs
// cols == rows.
func Hypervolume(m *mat.Dense) (float64, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return 0, errEmptyMatrix
	}

	centered := mat.NewDense(rows, cols, nil)
	lastRow := mat.Row(nil, rows-1, m)
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, m)
		for j := 0; j < cols; j++ {
			row[j] -= lastRow[j]
		}
		centered.SetRow(i, row)
	}

	var qr mat.QR
	qr.Factorize(centered)
	var q mat.Dense
	qr.QTo(&q)

	var projected mat.Dense
	projected.Mul(&q, m.T())

	pr, pc := projected.Dims()
	if pr < 2 || pc < 2 {
		return 0, nil
	}
	reduced := projected.Slice(0, pr, 0, pc-1).(*mat.Dense)

	lastReduced := mat.Row(nil, pr-1, reduced)
	edges := mat.NewDense(pr-1, pc-1, nil)
	for i := 0; i < pr-1; i++ {
		row := mat.Row(nil, i, reduced)
		for j := range row {
			row[j] -= lastReduced[j]
		}
		edges.SetRow(i, row)
	}

	var gram mat.Dense
	gram.Mul(edges, edges.T())
	det := mat.Det(&gram)
	if det < 0 {
		det = -det
	}
	return math.Sqrt(det), nil
}

var errEmptyMatrix = &hypervolumeError{"empty matrix"}

type hypervolumeError struct{ msg string }

func (e *hypervolumeError) Error() string { return e.msg }
