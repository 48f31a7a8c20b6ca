// Package contract declares the content shape contracts that generated
// JSON must satisfy, and the pure validator that checks parsed output
// against them. Contracts are data: new shapes are added by declaring a
// new Contract value, not by touching the retry engine.
package contract

// KeyFamily describes a dynamically-numbered pair of key sets, e.g.
// feature_1/content_1, feature_2/content_2. A key is content-like when it
// carries the content prefix (and suffix, when one is declared); a key is
// title-like when it contains the title pattern and is not content-like.
// Content-likeness wins the tie-break so the partition stays total.
type KeyFamily struct {
	TitlePattern  string // Substring marking a title-like key
	ContentPrefix string // Prefix marking a content-like key
	ContentSuffix string // Optional suffix a content-like key must also carry
	Minimum       int    // Minimum number of title/content pairs required
}

// HighlightRule requires a field to contain exactly one delimited span,
// no longer than half the field. The bound guards against the model
// highlighting an entire passage instead of a short product mention.
type HighlightRule struct {
	Field     string // Field the rule applies to
	Delimiter rune   // Marker character surrounding the span
}

// Contract is a named structural rule for one generated content shape.
type Contract struct {
	Name         string         // Contract name, used in diagnostics
	RequiredKeys []string       // Top-level keys that must be present
	Family       *KeyFamily     // Optional dynamic key family
	Highlight    *HighlightRule // Optional delimited-highlight rule
}

// Intro is the contract for the opening section: title, introduction with
// exactly one highlighted product mention, first subheader, benefits text
// and a meta description.
func Intro() Contract {
	return Contract{
		Name:         "intro",
		RequiredKeys: []string{"title", "introduction", "subheader_1", "benefits", "meta"},
		Highlight:    &HighlightRule{Field: "introduction", Delimiter: '*'},
	}
}

// FeatureList is the contract for the feature section: a second subheader
// plus at least minFeatures feature_N/content_N pairs.
func FeatureList(minFeatures int) Contract {
	return Contract{
		Name:         "feature_list",
		RequiredKeys: []string{"subheader_2"},
		Family: &KeyFamily{
			TitlePattern:  "feature_",
			ContentPrefix: "content_",
			Minimum:       minFeatures,
		},
	}
}

// Guide is the contract for the closing section: a third subheader with
// its message, a final sentence, and at least minSteps numbered guide
// steps paired with their content.
func Guide(minSteps int) Contract {
	return Contract{
		Name:         "guide",
		RequiredKeys: []string{"subheader_3", "subheader_3_message", "final_sentence"},
		Family: &KeyFamily{
			TitlePattern:  "guide_step_",
			ContentPrefix: "guide_step_",
			ContentSuffix: "_content",
			Minimum:       minSteps,
		},
	}
}
