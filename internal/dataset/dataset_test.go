package dataset

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 3.5 ", 3.5, true},
		{"2,500", 2500, true},
		{"1,234,567.89", 1234567.89, true},
		{"1.000,5", 1000.5, true},
		{"0,5", 0.5, true},
		{"12,5", 12.5, true},
		{"$1,200", 1200, true},
		{"₹ 950", 950, true},
		{"45%", 45, true},
		{"(300)", -300, true},
		{"-7", -7, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"North", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		assert.Equal(t, c.ok, ok, "ParseNumber(%q) ok", c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, "ParseNumber(%q)", c.in)
		}
	}
}

func TestFromTextDistinguishesMissing(t *testing.T) {
	assert.True(t, FromText("").IsMissing())
	assert.True(t, FromText(" NA ").IsMissing())
	assert.True(t, FromText("null").IsMissing())

	zero := FromText("0")
	assert.False(t, zero.IsMissing())
	f, ok := zero.Float()
	require.True(t, ok)
	assert.Equal(t, 0.0, f)

	empty := String("")
	assert.False(t, empty.IsMissing())
	_, ok = empty.Float()
	assert.False(t, ok)

	text := FromText("Laptops")
	assert.Equal(t, KindString, text.Kind())
	assert.Equal(t, "Laptops", text.String())

	// Numeric text keeps its original spelling for display and matching.
	n := FromText("2,500")
	assert.True(t, n.IsNumber())
	assert.Equal(t, "2,500", n.String())
}

func TestValueJSON(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"x","c":null,"d":""}`), &rec))
	assert.True(t, rec["a"].IsNumber())
	assert.Equal(t, "x", rec["b"].String())
	assert.True(t, rec["c"].IsMissing())
	assert.False(t, rec["d"].IsMissing())
	assert.True(t, rec.Get("zzz").IsMissing())

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":"x","c":null,"d":""}`, string(b))
}

func TestNewValidates(t *testing.T) {
	_, err := New("t", []string{"a", "a"}, nil)
	require.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = New("t", []string{"a"}, []Record{{"b": Number(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "b"`)

	ds, err := New("t", []string{"a"}, []Record{{"a": Number(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.False(t, ds.Empty())
	assert.True(t, (*Dataset)(nil).Empty())
}

func TestFromMapsColumnOrder(t *testing.T) {
	ds, err := FromMaps("x", nil, []map[string]any{
		{"sales": 10.0, "region": "North"},
		{"region": "South", "units": 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales", "units"}, ds.Columns)

	ds, err = FromMaps("x", []string{"sales", "region", "units"}, []map[string]any{{"sales": 1.0}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "region", "units"}, ds.Columns)
}

func TestCleanReturnsDerivedDataset(t *testing.T) {
	ds, err := New("t", []string{"region", "sales"}, []Record{
		{"region": String("North"), "sales": Number(100)},
		{"region": String("South")},
		{"sales": Number(30)},
	})
	require.NoError(t, err)

	cleaned := ds.Clean()
	assert.True(t, ds.Rows[1].Get("sales").IsMissing(), "original must not change")
	v, ok := cleaned.Rows[1].Get("sales").Float()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
	// Non-numeric columns keep missing cells.
	assert.True(t, cleaned.Rows[2].Get("region").IsMissing())
}

func TestProfileOf(t *testing.T) {
	ds, err := New("t", []string{"Order Date", "Region", "Product", "Sales", "Units"}, []Record{
		{"Order Date": String("2024-01-01"), "Region": String("North"), "Product": String("Pen"), "Sales": Number(10), "Units": Number(1)},
		{"Order Date": String("2024-01-02"), "Region": String("South"), "Product": String("Ink"), "Sales": Number(20), "Units": Number(2)},
	})
	require.NoError(t, err)

	p := ProfileOf(ds)
	assert.Equal(t, []string{"Order Date"}, p.Date)
	assert.Equal(t, []string{"Region"}, p.Location)
	assert.Equal(t, []string{"Region", "Product"}, p.Categorical)
	assert.Equal(t, []string{"Sales", "Units"}, p.Numeric)
	assert.Equal(t, "Sales", p.PreferredValue())
	assert.Equal(t, "Region", p.PreferredCategory())

	assert.Equal(t, TagDate, Classify(ds, "Order Date"))
	assert.Equal(t, TagCategorical, Classify(ds, "Product"))
}

func TestNormalizeAndWords(t *testing.T) {
	assert.Equal(t, "modalx0020price", Normalize("Modal_x0020_Price"))
	assert.Equal(t, "modalprice", Normalize("Modal Price"))
	assert.Equal(t, []string{"modal", "x0020", "price"}, Words("Modal_x0020_Price"))
}

func TestReadCSV(t *testing.T) {
	in := "region,sales,notes\nNorth,100,\nSouth,NA,late\n,,\nNorth,30,ok\n"
	ds, err := ReadCSV(strings.NewReader(in), "sales.csv", ',', 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales", "notes"}, ds.Columns)
	require.Equal(t, 3, ds.Len(), "blank rows are skipped")
	assert.True(t, ds.Rows[0].Get("notes").IsMissing())
	assert.True(t, ds.Rows[1].Get("sales").IsMissing())

	limited, err := ReadCSV(strings.NewReader(in), "sales.csv", ',', 1)
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Len())
}

func TestReadCSVDuplicateHeaders(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a,a,\n1,2,3\n"), "d.csv", ',', 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "column_3"}, ds.Columns)
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("notes.docx", LoadOptions{})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSummaryMarkdown(t *testing.T) {
	ds, err := New("sales.csv", []string{"region", "sales"}, []Record{
		{"region": String("North"), "sales": Number(100)},
		{"region": String("South"), "sales": Number(50)},
		{"region": String("North")},
	})
	require.NoError(t, err)

	md := Summarize(ds, 2).Markdown()
	assert.Contains(t, md, "File: sales.csv")
	assert.Contains(t, md, "Rows: 3")
	assert.Contains(t, md, "- region: location (non-null 3, missing 0.0%) — top: North(2), South(1)")
	assert.Contains(t, md, "- sales: numeric (non-null 2, missing 33.3%) — min 50, max 100, avg 75")
	assert.Contains(t, md, "[SAMPLE ROWS]")
	assert.Equal(t, 2, strings.Count(md, "| North |")+strings.Count(md, "| South |"))
}

func TestFingerprintStable(t *testing.T) {
	mk := func(v float64) *Dataset {
		ds, _ := New("x", []string{"a"}, []Record{{"a": Number(v)}})
		return ds
	}
	assert.Equal(t, mk(1).Fingerprint(), mk(1).Fingerprint())
	assert.NotEqual(t, mk(1).Fingerprint(), mk(2).Fingerprint())
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2024-03-15", "2024-03", "Mar 2024", "March 2024", "03/15/2024", " 2024-03-15 "} {
		got, ok := ParseTime(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, got.Year(), s)
		assert.Equal(t, 3, int(got.Month()), s)
	}
	feb, ok := ParseTime("Feb")
	require.True(t, ok)
	assert.Equal(t, 2, int(feb.Month()))

	for _, s := range []string{"", "North", "2024"} {
		_, ok := ParseTime(s)
		assert.False(t, ok, s)
	}
}
