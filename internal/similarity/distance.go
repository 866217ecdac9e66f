// Package similarity compares day records: Euclidean distance for ranking,
// dynamic time warping for alignment charts, and the matchers built on them.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

// DefaultWindow is the DTW window used for hourly day vectors.
const DefaultWindow = 24

// Euclidean returns the Euclidean distance between the temperature vectors of
// a and b. Both days must have the same length and the same hour sequence.
func Euclidean(a, b weather.DayRecord) (float64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	return floats.Distance(a.Temperatures, b.Temperatures, 2), nil
}

func compatible(a, b weather.DayRecord) error {
	incompatible := &weather.IncompatibleSequenceError{
		DateA: a.Date, DateB: b.Date,
		LenA: a.Len(), LenB: b.Len(),
	}
	if a.Len() != b.Len() || len(a.Hours) != a.Len() || len(b.Hours) != b.Len() {
		return incompatible
	}
	for i := range a.Hours {
		if a.Hours[i] != b.Hours[i] {
			return incompatible
		}
	}
	return nil
}

// Step is one matched index pair of a warping path.
type Step struct {
	I, J int
}

// Path is an ordered DTW alignment from (0,0) to (len(a)-1, len(b)-1).
type Path []Step

// WarpingPath computes the optimal DTW alignment between a and b. Only cells
// with |i-j| below window (widened by the length difference) are reachable.
// It returns the path and the DTW distance (square root of the accumulated
// squared differences).
func WarpingPath(a, b []float64, window int) (Path, float64, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil, 0, errors.New("warping path: empty sequence")
	}
	if window < 1 {
		return nil, 0, fmt.Errorf("warping path: window must be positive, got %d", window)
	}

	inf := math.Inf(1)
	acc := mat.NewDense(n, m, nil)

	for i := 0; i < n; i++ {
		lo := max(0, i-max(0, n-m)-window+1)
		hi := min(m, i+max(0, m-n)+window)
		for j := 0; j < m; j++ {
			if j < lo || j >= hi {
				acc.Set(i, j, inf)
				continue
			}

			d := a[i] - b[j]
			cost := d * d

			prev := 0.0
			if i > 0 || j > 0 {
				prev = inf
				if i > 0 && j > 0 {
					prev = math.Min(prev, acc.At(i-1, j-1))
				}
				if i > 0 {
					prev = math.Min(prev, acc.At(i-1, j))
				}
				if j > 0 {
					prev = math.Min(prev, acc.At(i, j-1))
				}
			}
			acc.Set(i, j, cost+prev)
		}
	}

	total := acc.At(n-1, m-1)
	if math.IsInf(total, 1) {
		return nil, 0, fmt.Errorf("warping path: window %d cannot align lengths %d and %d", window, n, m)
	}

	return backtrack(acc), math.Sqrt(total), nil
}

// backtrack walks the accumulated cost matrix from the last cell to the
// origin, preferring the diagonal on ties.
func backtrack(acc *mat.Dense) Path {
	i, j := acc.Dims()
	i--
	j--

	path := Path{{I: i, J: j}}
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			diag, up, left := acc.At(i-1, j-1), acc.At(i-1, j), acc.At(i, j-1)
			switch {
			case diag <= up && diag <= left:
				i--
				j--
			case up <= left:
				i--
			default:
				j--
			}
		}
		path = append(path, Step{I: i, J: j})
	}

	slices.Reverse(path)
	return path
}
