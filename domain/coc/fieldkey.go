package coc

import (
	"regexp"
	"strconv"
)

// FieldKind classifies an entity type string.
type FieldKind int

const (
	KindPlainField FieldKind = iota
	KindSampleField
	KindAnalysisRequest
	KindAnalysisMethod
)

func (k FieldKind) String() string {
	switch k {
	case KindSampleField:
		return "sampleField"
	case KindAnalysisRequest:
		return "analysisRequest"
	case KindAnalysisMethod:
		return "analysisMethod"
	default:
		return "plainField"
	}
}

// Sample sub-fields. Customer sample id sub-fields use the suffix after
// customer_sample_id_<N>; lab-assigned ones are prefixed with "lab:".
const (
	SubfieldID        = "id"
	SubfieldMatrix    = "matrix"
	SubfieldComposite = "comp"
	SubfieldStartDate = "start_date"
	SubfieldStartTime = "start_time"
	SubfieldEndDate   = "end_date"
	SubfieldEndTime   = "end_time"
)

// FieldKey is the parsed form of an entity type string. Everything downstream
// of ParseFieldKey works on these values instead of re-matching strings.
type FieldKey struct {
	Raw  string
	Kind FieldKind
	// SampleIndex is the numeric sample number, SampleLabel the digits exactly
	// as they appeared in the type string ("05" for Sample05_analysis01).
	SampleIndex int
	SampleLabel string
	Subfield    string
	MethodIndex int
}

// IsSample reports whether the key belongs to a sample group.
func (k FieldKey) IsSample() bool {
	return k.Kind != KindPlainField
}

// slot is the per-group storage key. Two type strings that only differ in
// digit padding map to the same slot.
func (k FieldKey) slot() string {
	switch k.Kind {
	case KindAnalysisMethod:
		return "analysis:" + strconv.Itoa(k.MethodIndex)
	case KindAnalysisRequest:
		return "request"
	default:
		return k.Subfield
	}
}

var (
	customerSampleRe = regexp.MustCompile(`^customer_sample_id_(\d+)(?:_(.+))?$`)
	labSampleRe      = regexp.MustCompile(`^sample_id_(\d+)_(.+)$`)
	analysisReqRe    = regexp.MustCompile(`^analysis_request_(\d+)$`)
	analysisMethodRe = regexp.MustCompile(`^Sample(\d{2})_analysis(\d{2})$`)
)

// ParseFieldKey matches typ against the sample naming conventions in
// precedence order. A type matching none of them is a plain field.
func ParseFieldKey(typ string) FieldKey {
	if m := customerSampleRe.FindStringSubmatch(typ); m != nil {
		sub := m[2]
		if sub == "" {
			sub = SubfieldID
		}
		return sampleKey(typ, KindSampleField, m[1], sub, 0)
	}
	if m := labSampleRe.FindStringSubmatch(typ); m != nil {
		return sampleKey(typ, KindSampleField, m[1], "lab:"+m[2], 0)
	}
	if m := analysisReqRe.FindStringSubmatch(typ); m != nil {
		return sampleKey(typ, KindAnalysisRequest, m[1], "", 0)
	}
	if m := analysisMethodRe.FindStringSubmatch(typ); m != nil {
		method, _ := strconv.Atoi(m[2])
		return sampleKey(typ, KindAnalysisMethod, m[1], "", method)
	}
	return FieldKey{Raw: typ, Kind: KindPlainField}
}

func sampleKey(raw string, kind FieldKind, digits, sub string, method int) FieldKey {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// more digits than an int holds; keep it grouped on its own
		n = -1
	}
	return FieldKey{
		Raw:         raw,
		Kind:        kind,
		SampleIndex: n,
		SampleLabel: digits,
		Subfield:    sub,
		MethodIndex: method,
	}
}

// AnalysisMethodType is the entity type of analysis checkbox nn for sample n.
func AnalysisMethodType(sample, nn int) string {
	return "Sample" + pad2(sample) + "_analysis" + pad2(nn)
}

func pad2(n int) string {
	if n >= 0 && n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
