// Package coc reconstructs chain-of-custody form structure from the flat entity
// list returned by the extraction service.
package coc

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

var errInvalidEntity = errors.New("invalid entity json")

// Entity is one extracted field as returned by the extraction service.
type Entity struct {
	Type            string  `json:"type"`
	Value           *string `json:"value"`
	Confidence      float64 `json:"confidence"`
	NormalizedValue *string `json:"normalized_value"`
}

// NewEntity builds an entity with a non-null value.
func NewEntity(typ, value string, confidence float64) Entity {
	v := value
	return Entity{Type: typ, Value: &v, Confidence: confidence}
}

// Text returns the entity value, or "" when the value is null.
func (e Entity) Text() string {
	if e.Value == nil {
		return ""
	}
	return *e.Value
}

// HasValue reports whether the value is non-null.
func (e Entity) HasValue() bool {
	return e.Value != nil
}

// UnmarshalJSON accepts the loosely typed payloads the extraction service
// emits: numbers and booleans become their string form, a missing value is
// treated as null, and confidence may arrive as a string.
func (e *Entity) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errInvalidEntity
	}
	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		*e = Entity{}
		return nil
	}

	e.Type = res.Get("type").String()
	e.Value = scalarString(res.Get("value"))
	e.NormalizedValue = scalarString(res.Get("normalized_value"))
	e.Confidence = clampConfidence(res.Get("confidence").Float())
	return nil
}

func scalarString(r gjson.Result) *string {
	var s string
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		s = r.Str
	case gjson.Number:
		s = r.Raw
		if s == "" {
			s = strconv.FormatFloat(r.Num, 'f', -1, 64)
		}
	case gjson.True:
		s = "true"
	case gjson.False:
		s = "false"
	default:
		s = r.Raw
	}
	return &s
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// DecodeEntities parses an entity array. Elements that are not objects are
// skipped rather than failing the whole payload.
func DecodeEntities(raw []byte) []Entity {
	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		return nil
	}
	var out []Entity
	res.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		var e Entity
		if err := e.UnmarshalJSON([]byte(item.Raw)); err == nil {
			out = append(out, e)
		}
		return true
	})
	return out
}
