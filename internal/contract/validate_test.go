package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateMalformedJSON(t *testing.T) {
	_, err := Validate("not json at all", Intro())
	var malformed *MalformedJSONError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedJSONError, got %v", err)
	}
}

func TestValidateMissingKeys(t *testing.T) {
	raw := `{"title": "A winter jacket", "benefits": "Warm."}`
	_, err := Validate(raw, Intro())
	var missing *MissingKeysError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingKeysError, got %v", err)
	}
	want := []string{"introduction", "meta", "subheader_1"}
	if len(missing.Keys) != len(want) {
		t.Fatalf("expected %d missing keys, got %v", len(want), missing.Keys)
	}
	for i, key := range want {
		if missing.Keys[i] != key {
			t.Errorf("missing key %d: expected %q, got %q", i, key, missing.Keys[i])
		}
	}
}

func TestValidateIntroSuccess(t *testing.T) {
	raw := `{
		"title": "stay warm this winter",
		"introduction": "Try the *ArcticShell* jacket on your next hike into the mountains.",
		"subheader_1": "built for the cold",
		"benefits": "It is warm. It is light. It packs small.",
		"meta": "A winter jacket guide."
	}`
	content, err := Validate(raw, Intro())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if content["title"] != "stay warm this winter" {
		t.Errorf("unexpected title field: %q", content["title"])
	}
}

func TestValidateHighlightMissing(t *testing.T) {
	for _, markers := range []int{0, 1, 3} {
		intro := "Try the jacket today" + strings.Repeat(" *", markers)
		raw, _ := json.Marshal(map[string]string{
			"title": "t", "introduction": intro, "subheader_1": "s",
			"benefits": "b", "meta": "m",
		})
		_, err := Validate(string(raw), Intro())
		var missing *HighlightMissingError
		if !errors.As(err, &missing) {
			t.Fatalf("markers=%d: expected HighlightMissingError, got %v", markers, err)
		}
		if missing.Markers != markers {
			t.Errorf("markers=%d: error reported %d markers", markers, missing.Markers)
		}
	}
}

func TestValidateHighlightTooLong(t *testing.T) {
	// The delimited span covers nearly the whole field, well past half.
	intro := "See *this entire sentence is one long highlighted span* ok"
	raw, _ := json.Marshal(map[string]string{
		"title": "t", "introduction": intro, "subheader_1": "s",
		"benefits": "b", "meta": "m",
	})
	_, err := Validate(string(raw), Intro())
	var tooLong *HighlightTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("expected HighlightTooLongError, got %v", err)
	}
}

func TestValidateHighlightAtHalfBoundary(t *testing.T) {
	// Span of 4 runes in a 13-rune field: span <= len/2 must pass.
	intro := "ab *abcd* efg"
	raw, _ := json.Marshal(map[string]string{
		"title": "t", "introduction": intro, "subheader_1": "s",
		"benefits": "b", "meta": "m",
	})
	if _, err := Validate(string(raw), Intro()); err != nil {
		t.Fatalf("span at boundary should validate, got %v", err)
	}
}

func TestValidateFeatureFamilyOrderIrrelevant(t *testing.T) {
	// Equal counts at or above the minimum succeed regardless of the
	// order keys were emitted in.
	raws := []string{
		`{"subheader_2": "why it works", "feature_1": "a", "content_1": "x", "feature_2": "b", "content_2": "y"}`,
		`{"content_2": "y", "feature_2": "b", "content_1": "x", "feature_1": "a", "subheader_2": "why it works"}`,
	}
	for i, raw := range raws {
		content, err := Validate(raw, FeatureList(2))
		if err != nil {
			t.Fatalf("ordering %d: Validate failed: %v", i, err)
		}
		if content["feature_2"] != "b" {
			t.Errorf("ordering %d: lost feature_2", i)
		}
	}
}

func TestValidateFeatureFamilyMismatch(t *testing.T) {
	raw := `{"subheader_2": "s", "feature_1": "a", "feature_2": "b", "content_1": "x"}`
	_, err := Validate(raw, FeatureList(1))
	var mismatch *KeyFamilyMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected KeyFamilyMismatchError, got %v", err)
	}
	if mismatch.Titles != 2 || mismatch.Contents != 1 {
		t.Errorf("expected 2 titles / 1 content, got %d/%d", mismatch.Titles, mismatch.Contents)
	}
}

func TestValidateFeatureFamilyBelowMinimum(t *testing.T) {
	raw := `{"subheader_2": "s", "feature_1": "a", "content_1": "x"}`
	_, err := Validate(raw, FeatureList(3))
	var below *BelowMinimumError
	if !errors.As(err, &below) {
		t.Fatalf("expected BelowMinimumError, got %v", err)
	}
	if below.Count != 1 || below.Minimum != 3 {
		t.Errorf("expected count 1 minimum 3, got %d/%d", below.Count, below.Minimum)
	}
}

func TestValidateGuideTieBreak(t *testing.T) {
	// guide_step_N_content matches both the title pattern and the content
	// pattern; the content classification must win so each pair counts once.
	raw := `{
		"subheader_3": "how to use it",
		"subheader_3_message": "three steps",
		"final_sentence": "Order the *ArcticShell* now.",
		"guide_step_1": "unpack", "guide_step_1_content": "Take it out of the box.",
		"guide_step_2": "zip up", "guide_step_2_content": "Close every zipper.",
		"guide_step_3": "go", "guide_step_3_content": "Head outside."
	}`
	content, err := Validate(raw, Guide(3))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if content["guide_step_2_content"] != "Close every zipper." {
		t.Errorf("lost guide step content: %q", content["guide_step_2_content"])
	}
}

func TestValidateNonStringValuesKept(t *testing.T) {
	raw := `{"subheader_2": "s", "feature_1": "a", "content_1": 42}`
	content, err := Validate(raw, FeatureList(1))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if content["content_1"] != "42" {
		t.Errorf("expected numeric value flattened to \"42\", got %q", content["content_1"])
	}
}

func TestFindHighlight(t *testing.T) {
	span, markers, ok := FindHighlight("Try *Widget* today", '*')
	if !ok || span != "Widget" || markers != 2 {
		t.Fatalf("FindHighlight = (%q, %d, %v)", span, markers, ok)
	}
	if _, markers, ok := FindHighlight("no markers here", '*'); ok || markers != 0 {
		t.Errorf("expected no highlight, got ok=%v markers=%d", ok, markers)
	}
}
