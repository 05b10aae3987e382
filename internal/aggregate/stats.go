package aggregate

import (
	"fmt"
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// StdDev is the sample standard deviation (n-1 denominator).
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Slope is the least-squares slope of ys over their index positions.
func Slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

// Pearson returns the correlation coefficient of paired samples; ok is false
// when fewer than two pairs exist or either side has no variance.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0, false
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

// Regression fits ys = slope*xs + intercept by least squares. r2 is the
// coefficient of determination; a constant ys is fit exactly (r2 = 1).
// ok is false when fewer than two pairs exist or xs has no variance.
func Regression(xs, ys []float64) (slope, intercept, r2 float64, ok bool) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0, 0, 0, false
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 {
		return 0, 0, 0, false
	}
	slope = cov / vx
	intercept = my - slope*mx
	r2 = 1
	if vy != 0 {
		r2 = cov * cov / (vx * vy)
	}
	return slope, intercept, r2, true
}

// CorrelationStrength labels the magnitude of r.
func CorrelationStrength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "Strong"
	case a >= 0.3:
		return "Moderate"
	case a >= 0.1:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// Quantile uses linear interpolation between closest ranks on a sorted copy.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

// Outliers returns the values outside [Q1-1.5*IQR, Q3+1.5*IQR], in input order.
func Outliers(xs []float64) []float64 {
	if len(xs) < 4 {
		return nil
	}
	q1, q3 := Quantile(xs, 0.25), Quantile(xs, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr
	var out []float64
	for _, x := range xs {
		if x < lo || x > hi {
			out = append(out, x)
		}
	}
	return out
}

// Bucket is one equal-width histogram bin, [Low, High) except the last bin
// which also includes High.
type Bucket struct {
	Label string
	Low   float64
	High  float64
	Count int
}

// BucketCount is min(10, ceil(sqrt(n))), at least 1 for non-empty input.
func BucketCount(n int) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k > 10 {
		k = 10
	}
	return k
}

// Histogram splits xs into BucketCount(len(xs)) equal-width buckets.
func Histogram(xs []float64) []Bucket {
	k := BucketCount(len(xs))
	if k == 0 {
		return nil
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		return []Bucket{{Label: formatEdge(lo), Low: lo, High: hi, Count: len(xs)}}
	}
	width := (hi - lo) / float64(k)
	out := make([]Bucket, k)
	for i := range out {
		b := lo + width*float64(i)
		e := b + width
		if i == k-1 {
			e = hi
		}
		out[i] = Bucket{Low: b, High: e, Label: formatEdge(b) + "-" + formatEdge(e)}
	}
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= k {
			i = k - 1
		}
		out[i].Count++
	}
	return out
}

func formatEdge(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}
