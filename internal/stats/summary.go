// Package stats summarizes extraction confidence for a reviewed document.
package stats

import (
	"sort"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"cocreview/domain/coc"
)

// DefaultLowConfidence is the threshold below which a field is flagged for review.
const DefaultLowConfidence = 0.6

// Distribution holds the confidence summary of a set of entities.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// LowField is a populated field whose confidence falls under the threshold.
type LowField struct {
	SectionType   string  `json:"sectionType"`
	OriginalIndex int     `json:"originalIndex"`
	Type          string  `json:"type"`
	FieldName     string  `json:"fieldName"`
	Value         string  `json:"value"`
	Confidence    float64 `json:"confidence"`
}

// Summary is the per-document confidence report.
type Summary struct {
	Overall    Distribution            `json:"overall"`
	Sections   map[string]Distribution `json:"sections"`
	Empty      int                     `json:"empty"`
	SampleRows int                     `json:"sampleRows"`
	Samples    int                     `json:"samples"`
	Low        []LowField              `json:"low"`
	Threshold  float64                 `json:"threshold"`
}

// Summarize computes confidence statistics over the categorized sections.
// Blank values are counted but excluded from the distributions.
func Summarize(s coc.Sections, threshold float64) (Summary, error) {
	if threshold <= 0 {
		threshold = DefaultLowConfidence
	}
	out := Summary{
		Sections:  make(map[string]Distribution, len(coc.SectionOrder)),
		Low:       []LowField{},
		Threshold: threshold,
	}

	var all []float64
	for _, name := range coc.SectionOrder {
		var values []float64
		for i, e := range *s.Get(name) {
			if strings.TrimSpace(e.Text()) == "" {
				out.Empty++
				continue
			}
			values = append(values, e.Confidence)
			if e.Confidence < threshold {
				out.Low = append(out.Low, LowField{
					SectionType:   name,
					OriginalIndex: i,
					Type:          e.Type,
					FieldName:     coc.DisplayName(e.Type),
					Value:         e.Text(),
					Confidence:    e.Confidence,
				})
			}
		}
		d, err := Describe(values)
		if err != nil {
			return out, err
		}
		out.Sections[name] = d
		all = append(all, values...)
	}

	overall, err := Describe(all)
	if err != nil {
		return out, err
	}
	out.Overall = overall

	sort.SliceStable(out.Low, func(i, j int) bool {
		return out.Low[i].Confidence < out.Low[j].Confidence
	})

	rows := coc.ExpandSamples(coc.GroupSamples(s.CollectedSampleDataInfo))
	out.SampleRows = len(rows)
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.SampleNumber] = true
	}
	out.Samples = len(seen)
	return out, nil
}

// Describe returns the distribution of data. An empty input yields the zero
// Distribution.
func Describe(data []float64) (Distribution, error) {
	d := Distribution{Count: len(data)}
	if len(data) == 0 {
		return d, nil
	}

	var err error
	if d.Mean, err = mstats.Mean(data); err != nil {
		return d, err
	}
	if d.Median, err = mstats.Median(data); err != nil {
		return d, err
	}
	if d.StdDev, err = mstats.StandardDeviation(data); err != nil {
		return d, err
	}
	if d.Min, err = mstats.Min(data); err != nil {
		return d, err
	}
	if d.Max, err = mstats.Max(data); err != nil {
		return d, err
	}
	if d.Q25, err = mstats.Percentile(data, 25); err != nil {
		return d, err
	}
	if d.Q75, err = mstats.Percentile(data, 75); err != nil {
		return d, err
	}
	return d, nil
}
