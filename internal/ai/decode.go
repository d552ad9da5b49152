package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schemas/extraction.json
	extractionSchemaJSON string
	//go:embed schemas/reconciled.json
	reconciledSchemaJSON string

	extractionSchema = mustSchema(extractionSchemaJSON)
	reconciledSchema = mustSchema(reconciledSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile json schema: %v", err))
	}
	return schema
}

// DecodeExtraction parses a model reply into an Extraction. Code fences are
// stripped, the payload is checked against the extraction schema, education
// objects of the form {"degree", "field"} are flattened to "degree field" and
// loosely typed scalars are coerced.
func DecodeExtraction(raw string) (*Extraction, error) {
	doc, err := decodeObject(raw, extractionSchema)
	if err != nil {
		return nil, err
	}

	doc["education"] = flattenEducation(doc["education"])
	doc["experience_years"] = coerceYears(doc["experience_years"])
	for _, key := range []string{"name", "email", "phone"} {
		doc[key] = coerceString(doc[key])
	}

	var out Extraction
	if err := decodeInto(doc, &out); err != nil {
		return nil, err
	}
	out.Skills = nonNil(out.Skills)
	out.Education = nonNil(out.Education)
	return &out, nil
}

// DecodeReconciled parses a reconciliation reply.
func DecodeReconciled(raw string) (*Reconciled, error) {
	doc, err := decodeObject(raw, reconciledSchema)
	if err != nil {
		return nil, err
	}

	doc["education"] = flattenEducation(doc["education"])

	var out Reconciled
	if err := decodeInto(doc, &out); err != nil {
		return nil, err
	}
	out.Skills = nonNil(out.Skills)
	out.Education = nonNil(out.Education)
	return &out, nil
}

func decodeObject(raw string, schema *gojsonschema.Schema) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedResponse)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(problems, "; "))
	}

	return doc, nil
}

func decodeInto(doc map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func flattenEducation(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			out = append(out, val)
		case map[string]any:
			degree := coerceString(val["degree"])
			if degree == "" {
				continue
			}
			if field := coerceString(val["field"]); field != "" {
				degree = degree + " " + field
			}
			out = append(out, degree)
		}
	}
	return out
}

func coerceYears(v any) float64 {
	f := coerceFloat(v)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return f
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
