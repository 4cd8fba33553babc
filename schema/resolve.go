package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// HEADER RESOLUTION — raw sheet headers → canonical fields
// ============================================================================
// Pipeline:
//   1. Normalize every raw header (case, width, accents, punctuation)
//   2. Walk schema fields in order; each tries its canonical name, then its
//      aliases, claiming the first unclaimed matching header
//   3. Required fields with no match → MissingColumnError (fatal for the load)
//   4. Headers nobody claimed are reported, not an error
// ============================================================================

// ErrMissingColumn is the sentinel wrapped by MissingColumnError.
var ErrMissingColumn = errors.New("missing required column")

// MissingField names one required field that no header matched.
type MissingField struct {
	Field Field    `json:"field"`
	Tried []string `json:"tried"`
}

// MissingColumnError is returned when required fields cannot be located.
type MissingColumnError struct {
	Fields []MissingField `json:"fields"`
}

func (e *MissingColumnError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (tried: %s)", m.Field, strings.Join(m.Tried, ", ")))
	}
	return fmt.Sprintf("missing required column(s): %s", strings.Join(parts, "; "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// FieldNames returns the missing canonical field names.
func (e *MissingColumnError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, m := range e.Fields {
		names[i] = string(m.Field)
	}
	return names
}

// Mapping is the result of resolving a header row.
type Mapping struct {
	Columns  map[Field]int    `json:"columns"` // field → column index
	Headers  map[Field]string `json:"headers"` // field → raw header that matched
	Unmapped []UnmappedColumn `json:"unmapped,omitempty"`
}

// UnmappedColumn records a source header that no field claimed.
type UnmappedColumn struct {
	Column     string `json:"column"`
	Normalized string `json:"normalized"`
}

// Has reports whether the field was found in the source.
func (m Mapping) Has(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// Index returns the column index for a field, or -1.
func (m Mapping) Index(f Field) int {
	if i, ok := m.Columns[f]; ok {
		return i
	}
	return -1
}

// Resolve maps raw headers onto the schema's fields.
// The returned Mapping is populated even when err is a *MissingColumnError,
// so callers can report what was found alongside what was not.
func (s *Schema) Resolve(headers []string) (Mapping, error) {
	normalized := make([]string, len(headers))
	byKey := make(map[string][]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		normalized[i] = key
		byKey[key] = append(byKey[key], i)
	}

	m := Mapping{
		Columns: make(map[Field]int),
		Headers: make(map[Field]string),
	}
	claimed := make(map[int]bool, len(headers))
	var missing []MissingField

	for _, def := range s.Fields {
		candidates := append([]string{string(def.Field)}, def.Aliases...)
		found := -1
		for _, alias := range candidates {
			for _, idx := range byKey[NormalizeHeader(alias)] {
				if !claimed[idx] {
					found = idx
					break
				}
			}
			if found >= 0 {
				break
			}
		}

		if found < 0 {
			if def.Required {
				missing = append(missing, MissingField{Field: def.Field, Tried: candidates})
			}
			continue
		}
		claimed[found] = true
		m.Columns[def.Field] = found
		m.Headers[def.Field] = headers[found]
	}

	for i, h := range headers {
		if !claimed[i] {
			m.Unmapped = append(m.Unmapped, UnmappedColumn{Column: h, Normalized: normalized[i]})
		}
	}

	if len(missing) > 0 {
		return m, &MissingColumnError{Fields: missing}
	}
	return m, nil
}

// ============================================================================
// HEADER NORMALIZATION
// ============================================================================

var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader folds a raw header into a comparable key.
// "PLW CNIC No", " plw-cnic no ", "PLW_CNIC_NO" → "plw_cnic_no".
// "Amount (Rs.)" → "amount_rs".
func NormalizeHeader(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
