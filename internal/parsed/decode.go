package parsed

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// WarningMessage is shown to the reviewer when the stored payload does not validate.
const WarningMessage = "Failed to validate parsed data. You can still save manually."

// ErrDecode is returned when the input is not a JSON object.
var ErrDecode = errors.New("parsed resume is not a JSON object")

// ValidationError lists every schema violation found in a payload.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "parsed resume failed validation: " + strings.Join(e.Issues, "; ")
}

var schema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("compile parsed resume schema: %v", err))
	}
	return s
}

// Decode parses raw model output or a submitted payload: markdown fences are
// stripped, nulls become absent, defaults are filled, then the result is
// validated against the schema.
func Decode(raw []byte) (*Resume, error) {
	body := stripFences(string(raw))

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	obj, ok := dropNulls(doc).(map[string]any)
	if !ok {
		return nil, ErrDecode
	}
	applyDefaults(obj)

	res, err := schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return nil, fmt.Errorf("validate parsed resume: %w", err)
	}
	if !res.Valid() {
		issues := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			issues = append(issues, e.String())
		}
		return nil, &ValidationError{Issues: issues}
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var out Resume
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &out, nil
}

// Issues flattens a Decode error into reviewer-facing messages.
func Issues(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = dropNulls(val)
		}
		return t
	default:
		return v
	}
}

var itemDefaults = map[string]map[string]any{
	"experiences":    {"isCurrent": false},
	"education":      {"degree": "", "field": "", "startDate": ""},
	"skills":         {},
	"certifications": {"issuer": "", "issueDate": ""},
	"projects":       {},
}

func applyDefaults(obj map[string]any) {
	if profile, ok := obj["profile"].(map[string]any); ok {
		if _, has := profile["name"]; !has {
			profile["name"] = ""
		}
	}
	for section, defaults := range itemDefaults {
		items, ok := obj[section]
		if !ok {
			obj[section] = []any{}
			continue
		}
		list, ok := items.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for k, def := range defaults {
				if _, has := m[k]; !has {
					m[k] = def
				}
			}
		}
	}
}
