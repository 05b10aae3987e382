package aggregate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRows() []dataset.Record {
	return []dataset.Record{
		{"region": dataset.String("North"), "sales": dataset.Number(100)},
		{"region": dataset.String("South"), "sales": dataset.Number(50)},
		{"region": dataset.String("North"), "sales": dataset.Number(30)},
	}
}

func TestGroupSumKeepsFirstSeenOrder(t *testing.T) {
	got := GroupSum(salesRows(), "region", "sales")
	assert.Equal(t, []Group{{Key: "North", Value: 130, Count: 2}, {Key: "South", Value: 50, Count: 1}}, got)

	top := TopN(got, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "North", top[0].Key)
	assert.Equal(t, 130.0, top[0].Value)
}

func TestMissingIsExcludedNotZero(t *testing.T) {
	rows := append(salesRows(),
		dataset.Record{"region": dataset.String("South")},
		dataset.Record{"region": dataset.String("South"), "sales": dataset.String("n/a-ish")},
		dataset.Record{"sales": dataset.Number(999)},
	)
	avg := GroupAverage(rows, "region", "sales")
	assert.Equal(t, []Group{{Key: "North", Value: 65, Count: 2}, {Key: "South", Value: 50, Count: 1}}, avg)

	mean, ok := Average(rows, "sales")
	require.True(t, ok)
	assert.InDelta(t, (100+50+30+999)/4.0, mean, 1e-9)

	_, ok = Average(rows, "region")
	assert.False(t, ok)
}

func TestTopNTiesAreStable(t *testing.T) {
	groups := []Group{{Key: "a", Value: 5}, {Key: "b", Value: 7}, {Key: "c", Value: 5}, {Key: "d", Value: 7}}
	got := TopN(groups, 3)
	keys := []string{got[0].Key, got[1].Key, got[2].Key}
	assert.Equal(t, []string{"b", "d", "a"}, keys)
	assert.Equal(t, "a", groups[0].Key, "input untouched")
	assert.Empty(t, TopN(groups, 0))
	assert.Len(t, TopN(groups, 10), 4)
}

// Properties over random datasets: top N size and ordering, and group-sum round trip.
func TestTopNAndRoundTripProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		var rows []dataset.Record
		nRows := rng.Intn(40)
		for i := 0; i < nRows; i++ {
			r := dataset.Record{}
			if rng.Intn(6) > 0 {
				r["g"] = dataset.String(fmt.Sprintf("g%d", rng.Intn(8)))
			}
			if rng.Intn(5) > 0 {
				r["v"] = dataset.Number(float64(rng.Intn(1000)))
			}
			rows = append(rows, r)
		}
		groups := GroupSum(rows, "g", "v")

		var want float64
		for _, r := range rows {
			if r.Get("g").IsMissing() {
				continue
			}
			if f, ok := r.Get("v").Float(); ok {
				want += f
			}
		}
		assert.InDelta(t, want, Total(groups), 1e-6)

		n := rng.Intn(10)
		top := TopN(groups, n)
		wantLen := n
		if len(groups) < n {
			wantLen = len(groups)
		}
		require.Len(t, top, wantLen)
		for i := 1; i < len(top); i++ {
			assert.GreaterOrEqual(t, top[i-1].Value, top[i].Value)
		}
		assert.LessOrEqual(t, Total(top), want+1e-6)
	}
}

func TestFilterAndCount(t *testing.T) {
	ds, err := dataset.New("t", []string{"category", "price"}, []dataset.Record{
		{"category": dataset.String("Laptops"), "price": dataset.Number(1000)},
		{"category": dataset.String("laptops "), "price": dataset.Number(1500)},
		{"category": dataset.String("Phones"), "price": dataset.Number(600)},
	})
	require.NoError(t, err)

	assert.Len(t, FilterEquals(ds.Rows, "category", "LAPTOPS"), 2)
	assert.Equal(t, 1, Count(ds.Rows, "category", "phones"))
	assert.Equal(t, 0, Count(ds.Rows, "category", ""))

	col, rows, ok := FindFilter(ds, "Laptops")
	require.True(t, ok)
	assert.Equal(t, "category", col)
	avg, ok := Average(rows, "price")
	require.True(t, ok)
	assert.Equal(t, 1250.0, avg)

	_, _, ok = FindFilter(ds, "Tablets")
	assert.False(t, ok)
}

func TestUniqueAndGroupCount(t *testing.T) {
	rows := append(salesRows(), dataset.Record{"sales": dataset.Number(1)})
	assert.Equal(t, []string{"North", "South"}, Unique(rows, "region"))
	assert.Equal(t, []Group{{Key: "North", Value: 2, Count: 2}, {Key: "South", Value: 1, Count: 1}}, GroupCount(rows, "region"))
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 1.5811, StdDev([]float64{1, 2, 3, 4, 5}), 1e-4)
	assert.InDelta(t, 2.0, Slope([]float64{1, 3, 5, 7}), 1e-9)

	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)
	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)

	assert.Equal(t, "Strong", CorrelationStrength(-0.8))
	assert.Equal(t, "Moderate", CorrelationStrength(0.3))
	assert.Equal(t, "Weak", CorrelationStrength(0.15))
	assert.Equal(t, "Very Weak", CorrelationStrength(0.01))

	assert.Equal(t, []float64{100}, Outliers([]float64{10, 11, 12, 13, 12, 11, 100}))
	assert.Nil(t, Outliers([]float64{1, 2}))
}

func TestHistogram(t *testing.T) {
	assert.Equal(t, 0, BucketCount(0))
	assert.Equal(t, 1, BucketCount(1))
	assert.Equal(t, 3, BucketCount(9))
	assert.Equal(t, 4, BucketCount(10))
	assert.Equal(t, 10, BucketCount(1000))

	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := Histogram(xs)
	require.Len(t, b, 4)
	total := 0
	for _, bk := range b {
		total += bk.Count
	}
	assert.Equal(t, len(xs), total)
	assert.Equal(t, "0-2.25", b[0].Label)
	assert.Equal(t, 9.0, b[3].High)

	same := Histogram([]float64{4, 4, 4})
	require.Len(t, same, 1)
	assert.Equal(t, 3, same[0].Count)
}

func TestRegression(t *testing.T) {
	slope, intercept, r2, ok := Regression([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.True(t, ok)
	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, intercept, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)

	_, _, r2, ok = Regression([]float64{1, 2, 3, 4}, []float64{2, 1, 4, 3})
	require.True(t, ok)
	assert.InDelta(t, 0.36, r2, 1e-9)

	_, _, _, ok = Regression([]float64{5, 5, 5}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, _, _, ok = Regression([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestChronological(t *testing.T) {
	in := []Group{{Key: "2024-03", Value: 30}, {Key: "2024-01", Value: 10}, {Key: "2024-02", Value: 20}}
	out := Chronological(in)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, []string{out[0].Key, out[1].Key, out[2].Key})
	assert.Equal(t, "2024-03", in[0].Key)

	years := Chronological([]Group{{Key: "2023"}, {Key: "2021"}, {Key: "2022"}})
	assert.Equal(t, "2021", years[0].Key)
	assert.Equal(t, "2023", years[2].Key)

	mixed := Chronological([]Group{{Key: "2024-02"}, {Key: "later"}, {Key: "2024-01"}})
	assert.Equal(t, "2024-02", mixed[0].Key)
}
