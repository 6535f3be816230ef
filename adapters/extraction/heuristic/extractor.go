// Package heuristic extracts COC entities from OCR text with label patterns.
// It is the fallback when the extraction service only returns text.
package heuristic

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"cocreview/domain/coc"
)

// Confidence assigned to every pattern match.
const Confidence = 0.35

type labelRule struct {
	typ     string
	pattern *regexp.Regexp
}

// Label rules are tried in order; the first match per type wins.
var labelRules = []labelRule{
	{"company_name", regexp.MustCompile(`(?im)^\s*(?:company(?:\s*name)?|client)\s*[:#]\s*(.+?)\s*$`)},
	{"street_address", regexp.MustCompile(`(?im)^\s*(?:street\s*)?address\s*[:#]\s*(.+?)\s*$`)},
	{"city_state_zip", regexp.MustCompile(`(?im)^\s*city\s*/\s*state\s*/\s*zip\s*[:#]?\s*(.+?)\s*$`)},
	{"customer_project_name", regexp.MustCompile(`(?im)^\s*project\s*name\s*[:#]\s*(.+?)\s*$`)},
	{"project_number", regexp.MustCompile(`(?im)^\s*project\s*(?:#|no\.?|number)\s*:?\s*(.+?)\s*$`)},
	{"report_to_contact", regexp.MustCompile(`(?im)^\s*(?:report\s*to|contact)\s*[:#]\s*(.+?)\s*$`)},
	{"phone", regexp.MustCompile(`(?i)(?:phone|tel)\s*[:#]?\s*(\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4})`)},
	{"email", regexp.MustCompile(`(?i)\b([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})\b`)},
	{"purchase_order_number", regexp.MustCompile(`(?im)^\s*(?:p\.?o\.?|purchase\s*order)\s*(?:#|no\.?|number)?\s*:?\s*([A-Za-z0-9-]+)\s*$`)},
	{"sampler_name", regexp.MustCompile(`(?im)^\s*(?:collected\s*by|sampler(?:\s*name)?)\s*[:#]\s*(.+?)\s*$`)},
	{"turnaround_time", regexp.MustCompile(`(?im)^\s*(?:turn\s*-?\s*around\s*time|tat)\s*[:#]\s*(.+?)\s*$`)},
	{"cooler_temperature", regexp.MustCompile(`(?i)(?:cooler\s*)?temp(?:erature)?\s*(?:\(\s*°?c\s*\))?\s*[:#]?\s*(-?\d{1,2}(?:\.\d)?)`)},
	{"relinquished_by", regexp.MustCompile(`(?im)^\s*relinquished\s*by\s*[:#]\s*(.+?)\s*$`)},
	{"received_by", regexp.MustCompile(`(?im)^\s*received\s*by\s*[:#]\s*(.+?)\s*$`)},
}

// sampleLineRe matches a numbered sample line:
// "1  MW-01  GW G  4/6/24  08:00  8260".
var sampleLineRe = regexp.MustCompile(`(?m)^\s*(\d{1,2})[.)]?\s+([A-Za-z]{1,6}-?\d{1,4}[A-Za-z0-9-]*)\s+([A-Za-z]{2})\s*([GgCc])?\s+(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})?\s*(\d{1,2}:\d{2})?[ \t]*(.*)$`)

// Extractor matches labels and sample lines in OCR text.
type Extractor struct{}

// NewExtractor creates a new heuristic extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the entities found in text. It never fails on content;
// the only error is a cancelled context.
func (x *Extractor) ExtractText(ctx context.Context, text string) ([]coc.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []coc.Entity
	for _, rule := range labelRules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			out = append(out, coc.NewEntity(rule.typ, v, Confidence))
		}
	}
	return append(out, x.sampleEntities(text)...), nil
}

func (x *Extractor) sampleEntities(text string) []coc.Entity {
	var out []coc.Entity
	seen := make(map[int]bool)
	for _, m := range sampleLineRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > coc.MaxSamples || seen[n] {
			continue
		}
		seen[n] = true
		prefix := "customer_sample_id_" + strconv.Itoa(n)

		out = append(out, coc.NewEntity(prefix, m[2], Confidence))
		out = append(out, coc.NewEntity(prefix+"_matrix", strings.ToUpper(m[3]+m[4]), Confidence))
		if m[5] != "" {
			out = append(out, coc.NewEntity(prefix+"_start_date", m[5], Confidence))
		}
		if m[6] != "" {
			out = append(out, coc.NewEntity(prefix+"_start_time", m[6], Confidence))
		}
		if method := strings.TrimSpace(m[7]); method != "" {
			out = append(out, coc.NewEntity("analysis_request_"+strconv.Itoa(n), method, Confidence))
		}
	}
	return out
}
