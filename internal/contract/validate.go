package contract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MalformedJSONError reports raw text that could not be parsed as a JSON
// object. This is an expected outcome of sampling, not a defect.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// MissingKeysError reports the set of required keys absent from the
// generated object.
type MissingKeysError struct {
	Contract string
	Keys     []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("contract %s: missing keys: %s", e.Contract, strings.Join(e.Keys, ", "))
}

// KeyFamilyMismatchError reports unequal title-like and content-like key
// counts in a dynamic key family.
type KeyFamilyMismatchError struct {
	Contract string
	Titles   int
	Contents int
}

func (e *KeyFamilyMismatchError) Error() string {
	return fmt.Sprintf("contract %s: key family mismatch: %d title keys, %d content keys", e.Contract, e.Titles, e.Contents)
}

// BelowMinimumError reports a key family smaller than the contract allows.
type BelowMinimumError struct {
	Contract string
	Count    int
	Minimum  int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("contract %s: %d key pairs, minimum is %d", e.Contract, e.Count, e.Minimum)
}

// HighlightMissingError reports a field without exactly one delimited span.
type HighlightMissingError struct {
	Contract string
	Field    string
	Markers  int
}

func (e *HighlightMissingError) Error() string {
	return fmt.Sprintf("contract %s: field %q has %d highlight markers, want exactly 2", e.Contract, e.Field, e.Markers)
}

// HighlightTooLongError reports a delimited span longer than half its field.
type HighlightTooLongError struct {
	Contract string
	Field    string
	SpanLen  int
	FieldLen int
}

func (e *HighlightTooLongError) Error() string {
	return fmt.Sprintf("contract %s: highlight span of %d runes exceeds half of field %q (%d runes)", e.Contract, e.SpanLen, e.Field, e.FieldLen)
}

// Validate checks raw generated text against a contract. It is a pure
// function: the same (raw, contract) pair always yields the same verdict.
// On success it returns the content as a field map; every failure is one
// of the typed errors above, all of which are retryable conditions.
func Validate(raw string, c Contract) (map[string]string, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &MalformedJSONError{Err: err}
	}

	var missing []string
	for _, key := range c.RequiredKeys {
		if _, ok := parsed[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingKeysError{Contract: c.Name, Keys: missing}
	}

	if c.Family != nil {
		titles, contents := c.Family.countKeys(parsed)
		if titles != contents {
			return nil, &KeyFamilyMismatchError{Contract: c.Name, Titles: titles, Contents: contents}
		}
		if titles < c.Family.Minimum {
			return nil, &BelowMinimumError{Contract: c.Name, Count: titles, Minimum: c.Family.Minimum}
		}
	}

	if c.Highlight != nil {
		field := stringField(parsed, c.Highlight.Field)
		if err := checkHighlight(c.Name, c.Highlight, field); err != nil {
			return nil, err
		}
	}

	content := make(map[string]string, len(parsed))
	for key, value := range parsed {
		content[key] = stringValue(value)
	}
	return content, nil
}

// countKeys partitions the object's keys into title-like and content-like
// sets. Insertion order is irrelevant; only the counts matter.
func (f *KeyFamily) countKeys(parsed map[string]any) (titles, contents int) {
	for key := range parsed {
		switch {
		case f.isContent(key):
			contents++
		case strings.Contains(key, f.TitlePattern):
			titles++
		}
	}
	return titles, contents
}

func (f *KeyFamily) isContent(key string) bool {
	if !strings.HasPrefix(key, f.ContentPrefix) {
		return false
	}
	return f.ContentSuffix == "" || strings.HasSuffix(key, f.ContentSuffix)
}

// checkHighlight enforces exactly one delimited span of bounded length.
func checkHighlight(name string, rule *HighlightRule, field string) error {
	span, markers, ok := FindHighlight(field, rule.Delimiter)
	if !ok {
		return &HighlightMissingError{Contract: name, Field: rule.Field, Markers: markers}
	}
	runes := []rune(field)
	spanLen := len([]rune(span))
	if spanLen == 0 || spanLen > len(runes)/2 {
		return &HighlightTooLongError{Contract: name, Field: rule.Field, SpanLen: spanLen, FieldLen: len(runes)}
	}
	return nil
}

// FindHighlight locates the single delimited span in text. It returns the
// span between the markers, the number of markers seen, and whether
// exactly two were found. The assembler uses the same scan, so validator
// and assembler always agree on which span qualifies.
func FindHighlight(text string, delim rune) (span string, markers int, ok bool) {
	first, last := -1, -1
	for i, r := range text {
		if r != delim {
			continue
		}
		markers++
		if first == -1 {
			first = i
		} else {
			last = i
		}
	}
	if markers != 2 || last <= first {
		return "", markers, false
	}
	return text[first+len(string(delim)) : last], markers, true
}

// stringField returns the named field coerced to a string, or "" when
// the field is absent or not textual.
func stringField(parsed map[string]any, name string) string {
	value, ok := parsed[name]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// stringValue flattens a JSON value to its string form. Generated content
// fields are strings in practice; anything else is rendered with fmt so
// no field silently disappears from the validated map.
func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
