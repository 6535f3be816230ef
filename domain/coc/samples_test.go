package coc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldKey(t *testing.T) {
	tests := []struct {
		typ    string
		kind   FieldKind
		label  string
		sub    string
		method int
	}{
		{"customer_sample_id_3", KindSampleField, "3", SubfieldID, 0},
		{"customer_sample_id_3_start_date", KindSampleField, "3", SubfieldStartDate, 0},
		{"customer_sample_id_12_matrix", KindSampleField, "12", SubfieldMatrix, 0},
		{"sample_id_4_containers", KindSampleField, "4", "lab:containers", 0},
		{"analysis_request_8", KindAnalysisRequest, "8", "", 0},
		{"Sample05_analysis04", KindAnalysisMethod, "05", "", 4},
		{"Sample5_analysis04", KindPlainField, "", "", 0},
		{"sample_id_4", KindPlainField, "", "", 0},
		{"company_name", KindPlainField, "", "", 0},
		{"analysis_request_", KindPlainField, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			k := ParseFieldKey(tt.typ)
			assert.Equal(t, tt.kind, k.Kind)
			assert.Equal(t, tt.label, k.SampleLabel)
			assert.Equal(t, tt.sub, k.Subfield)
			assert.Equal(t, tt.method, k.MethodIndex)
			assert.Equal(t, tt.typ, k.Raw)
		})
	}
}

func TestGroupSamples_EveryEntityLandsExactlyOnce(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_1", "MW-01"),
		ent("sample_matrix_legend", "GW=Groundwater"),
		ent("Sample01_analysis01", "8260"),
		ent("customer_sample_id_2", "MW-02"),
		ent("customer_sample_id_2", "MW-02b"),
		ent("analysis_request_2", "6010"),
		ent("additional_comments", "rush"),
	}

	g := GroupSamples(section)

	seen := make(map[int]int)
	for _, grp := range g.Groups {
		for _, ie := range grp.Fields {
			seen[ie.OriginalIndex]++
		}
		for _, ie := range grp.Shadowed {
			seen[ie.OriginalIndex]++
		}
	}
	for _, ie := range g.NonSampleFields {
		seen[ie.OriginalIndex]++
	}

	require.Len(t, seen, len(section))
	for i := range section {
		assert.Equal(t, 1, seen[i], "entity %d", i)
	}
	assert.Equal(t, []int{1, 6}, []int{g.NonSampleFields[0].OriginalIndex, g.NonSampleFields[1].OriginalIndex})
}

func TestGroupSamples_DuplicateFieldLastWins(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_2", "first"),
		ent("customer_sample_id_2", "second"),
	}

	g := GroupSamples(section)

	require.Len(t, g.Groups, 1)
	assert.Equal(t, "second", g.Groups[0].Fields["customer_sample_id_2"].Text())
	assert.Equal(t, 1, g.Groups[0].Fields["customer_sample_id_2"].OriginalIndex)
	require.Len(t, g.Groups[0].Shadowed, 1)
	assert.Equal(t, "first", g.Groups[0].Shadowed[0].Text())
}

func TestGroupSamples_SortsNumerically(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_10", "ten"),
		ent("customer_sample_id_2", "two"),
		ent("customer_sample_id_1", "one"),
	}

	g := GroupSamples(section)

	var keys []string
	for _, grp := range g.Groups {
		keys = append(keys, grp.Key)
	}
	assert.Equal(t, []string{"1", "2", "10"}, keys)
}

func TestGroupSamples_DoesNotMutateInput(t *testing.T) {
	section := []Entity{ent("customer_sample_id_1", "MW-01"), ent("Sample01_analysis01", "8260")}
	before := []string{section[0].Text(), section[1].Text()}

	_ = ExpandSamples(GroupSamples(section))

	assert.Equal(t, before, []string{section[0].Text(), section[1].Text()})
	assert.Equal(t, "customer_sample_id_1", section[0].Type)
}

func TestExpandSamples_SingleIDYieldsOneRow(t *testing.T) {
	rows := ExpandSamples(GroupSamples([]Entity{ent("customer_sample_id_3", "MW-03")}))

	require.Len(t, rows, 1)
	assert.Equal(t, "MW-03", rows[0].CustomerSampleID)
	assert.Equal(t, "", rows[0].Method)
	assert.Equal(t, SectionSampleData, rows[0].SectionType)
	assert.Equal(t, 0, rows[0].OriginalIndex)
}

func TestExpandSamples_OneRowPerActiveMethod(t *testing.T) {
	section := []Entity{
		ent("Sample05_analysis04", "6010 Metals"),
		ent("customer_sample_id_5", "MW-05"),
		ent("customer_sample_id_5_matrix", "GWG"),
		ent("Sample05_analysis01", "8260 VOC"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 2)
	assert.Equal(t, "8260 VOC", rows[0].Method)
	assert.Equal(t, 1, rows[0].AnalysisNumber)
	assert.Equal(t, 3, rows[0].OriginalIndex)
	assert.Equal(t, "6010 Metals", rows[1].Method)
	assert.Equal(t, 4, rows[1].AnalysisNumber)
	assert.Equal(t, 0, rows[1].OriginalIndex)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)

	for _, r := range rows {
		assert.Equal(t, "MW-05", r.CustomerSampleID)
		assert.Equal(t, "GW", r.Matrix)
		assert.Equal(t, "G", r.Grab)
		assert.Equal(t, "5", r.SampleNumber)
	}
	// rows do not share their index maps
	rows[0].FieldIndexes[ColumnMatrix] = 99
	assert.Equal(t, 2, rows[1].FieldIndexes[ColumnMatrix])
}

func TestExpandSamples_BlankAnalysisIsInactive(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_1", "MW-01"),
		ent("Sample01_analysis01", "  "),
		ent("Sample01_analysis02", "X"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Method)
}

func TestExpandSamples_AnalysisRequestFallback(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_4", "SW-4"),
		ent("analysis_request_4", "PFAS 537.1"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 1)
	assert.Equal(t, "PFAS 537.1", rows[0].Method)
	assert.Equal(t, 1, rows[0].OriginalIndex)
	assert.Equal(t, "sample-4-request", rows[0].ID)
}

func TestExpandSamples_EmptyGroupEmitsNothing(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_6", ""),
		ent("customer_sample_id_6_matrix", "  "),
		ent("customer_sample_id_7", "MW-07"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 1)
	assert.Equal(t, "MW-07", rows[0].CustomerSampleID)
}

func TestExpandSamples_DateTimeResolution(t *testing.T) {
	tests := []struct {
		name     string
		section  []Entity
		wantDate string
		wantTime string
	}{
		{
			name:     "combined value split, trailing time trimmed",
			section:  []Entity{ent("customer_sample_id_1_start_date", "4-6-24 8:00")},
			wantDate: "4-6-24",
			wantTime: "8:00",
		},
		{
			name: "explicit time wins over trailing text",
			section: []Entity{
				ent("customer_sample_id_1_start_date", "4/6/24 8:00"),
				ent("customer_sample_id_1_start_time", "09:15"),
			},
			wantDate: "4/6/24",
			wantTime: "09:15",
		},
		{
			name: "falls back to end date and time",
			section: []Entity{
				ent("customer_sample_id_1_end_date", "12/31/23"),
				ent("customer_sample_id_1_end_time", "17:45"),
			},
			wantDate: "12/31/23",
			wantTime: "17:45",
		},
		{
			name:     "unparseable date becomes the time",
			section:  []Entity{ent("customer_sample_id_1_start_date", "April 6th")},
			wantDate: "",
			wantTime: "April 6th",
		},
		{
			name: "unparseable date kept as date when time is explicit",
			section: []Entity{
				ent("customer_sample_id_1_start_date", "April 6th"),
				ent("customer_sample_id_1_start_time", "8:00"),
			},
			wantDate: "April 6th",
			wantTime: "8:00",
		},
		{
			name:     "four digit year only matches the first two digits",
			section:  []Entity{ent("customer_sample_id_1_start_date", "4/6/2024")},
			wantDate: "4/6/20",
			wantTime: "24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ExpandSamples(GroupSamples(tt.section))
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantDate, rows[0].CompositeStartDate)
			assert.Equal(t, tt.wantTime, rows[0].CompositeStartTime)
		})
	}
}

func TestSplitMatrix(t *testing.T) {
	tests := []struct {
		in, matrix, grab string
	}{
		{"GWG", "GW", "G"},
		{"GW G", "GW", "G"},
		{" WW C ", "WW", "C"},
		{"GW", "GW", ""},
		{"S", "S", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		m, g := SplitMatrix(tt.in)
		assert.Equal(t, tt.matrix, m, tt.in)
		assert.Equal(t, tt.grab, g, tt.in)
	}
}

func TestExpandSamples_MatrixPrefersDedicatedField(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_1_comp", "WWC"),
		ent("customer_sample_id_1_matrix", "GW G"),
		ent("customer_sample_id_2_comp", "SOG"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"GW", "G"}, []string{rows[0].Matrix, rows[0].Grab})
	assert.Equal(t, 1, rows[0].FieldIndexes[ColumnMatrix])
	assert.Equal(t, []string{"SO", "G"}, []string{rows[1].Matrix, rows[1].Grab})
}

func TestExpandSamples_PaddedAndPlainIndexShareARow(t *testing.T) {
	section := []Entity{
		ent("customer_sample_id_5", "MW-05"),
		ent("Sample05_analysis02", "8270"),
	}

	rows := ExpandSamples(GroupSamples(section))

	require.Len(t, rows, 1)
	assert.Equal(t, "MW-05", rows[0].CustomerSampleID)
	assert.Equal(t, "8270", rows[0].Method)
}

func TestExpandSamples_ContainersOnlyStillEmitsRow(t *testing.T) {
	rows := ExpandSamples(GroupSamples([]Entity{ent("sample_id_9_containers", "3")}))

	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].Containers)
	assert.Equal(t, 0, rows[0].OriginalIndex)
	assert.Equal(t, -1, rows[0].FieldIndexes[ColumnCustomerSampleID])
}
