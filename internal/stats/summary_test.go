package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cocreview/domain/coc"
)

func TestDescribe_Empty(t *testing.T) {
	d, err := Describe(nil)
	require.NoError(t, err)
	assert.Equal(t, Distribution{}, d)
}

func TestDescribe_Basic(t *testing.T) {
	d, err := Describe([]float64{0.2, 0.4, 0.6, 0.8})
	require.NoError(t, err)

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 0.5, d.Mean, 1e-9)
	assert.InDelta(t, 0.5, d.Median, 1e-9)
	assert.InDelta(t, 0.2, d.Min, 1e-9)
	assert.InDelta(t, 0.8, d.Max, 1e-9)
	assert.Greater(t, d.StdDev, 0.0)
	assert.GreaterOrEqual(t, d.Q25, d.Min)
	assert.LessOrEqual(t, d.Q75, d.Max)
	assert.LessOrEqual(t, d.Q25, d.Q75)
}

func TestSummarize(t *testing.T) {
	entities := []coc.Entity{
		coc.NewEntity("company_name", "Acme", 0.95),
		coc.NewEntity("email", "qa@acme.test", 0.3),
		coc.NewEntity("phone", "", 0.1),
		coc.NewEntity("customer_sample_id_1", "MW-01", 0.9),
		coc.NewEntity("Sample01_analysis01", "8260", 0.5),
		coc.NewEntity("Sample01_analysis02", "6010", 0.8),
		coc.NewEntity("customer_sample_id_2", "MW-02", 0.7),
	}

	sum, err := Summarize(coc.Classify(entities), 0.6)
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Overall.Count)
	assert.Equal(t, 1, sum.Empty)
	assert.Equal(t, 3, sum.SampleRows)
	assert.Equal(t, 2, sum.Samples)
	assert.Equal(t, 1, sum.Sections[coc.SectionCompanyLocation].Count)
	assert.Equal(t, 0, sum.Sections[coc.SectionContainer].Count)

	require.Len(t, sum.Low, 2)
	assert.Equal(t, "email", sum.Low[0].Type)
	assert.Equal(t, "Email To", sum.Low[0].FieldName)
	assert.Equal(t, "Sample01_analysis01", sum.Low[1].Type)
	assert.Equal(t, coc.SectionSampleData, sum.Low[1].SectionType)
}

func TestSummarize_DefaultThreshold(t *testing.T) {
	sum, err := Summarize(coc.Classify(nil), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLowConfidence, sum.Threshold)
	assert.Empty(t, sum.Low)
	assert.Equal(t, 0, sum.Overall.Count)
}
