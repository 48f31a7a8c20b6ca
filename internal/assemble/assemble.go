// Package assemble turns validated generation fields into a publishable
// HTML article. The document has three sections: an introduction with a
// product link and hero image, a feature list, and a numbered guide that
// closes with an emphasized call to action.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"blogsmith/internal/core"
)

// LinkStyle is the inline style applied to product anchors so they stand
// out inside themes that restyle plain links.
const LinkStyle = "color: #007bff; font-weight: bold; text-decoration: underline;"

var (
	highlightPattern = regexp.MustCompile(`\*([^*]+)\*`)
	sentenceBoundary = regexp.MustCompile(`(?:[.!?]) +`)
)

// Input carries everything a full document needs. The three content
// maps come from separate generation calls and stay separate here;
// their key families do not overlap.
type Input struct {
	Intro    core.ValidatedContent // title, introduction, subheader_1, benefits, meta
	Features core.ValidatedContent // subheader_2 plus feature_N/content_N pairs
	Guide    core.ValidatedContent // subheader_3, its message, guide steps, final_sentence

	ProductURL   string // Target of both product links
	ProductTitle string // Anchor text for the product links

	Language string // lang attribute, defaults to "en"
	CSS      string // Style block inserted verbatim into the head

	HeroImageURL   string
	HeroImageAlt   string
	FooterImageURL string // Optional image closing the feature section
	FooterImageAlt string
}

// Document assembles the complete HTML article.
func Document(in Input) string {
	var b strings.Builder
	b.WriteString(IntroSection(in))
	b.WriteString(FeatureSection(in.Features, in.FooterImageAlt, in.FooterImageURL))
	b.WriteString(GuideSection(in.Guide, in.ProductURL, in.ProductTitle))
	return b.String()
}

// IntroSection renders the document head and the opening section: the
// introduction paragraph with its product link, the hero image, and the
// benefits broken into one paragraph per sentence.
func IntroSection(in Input) string {
	lang := in.Language
	if lang == "" {
		lang = "en"
	}

	intro := ProductLink(in.Intro.Field("introduction"), in.ProductURL, in.ProductTitle)

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="description" content="%s">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link href="https://fonts.googleapis.com/css?family=Source+Sans+Pro:400,700" rel="stylesheet">
<title>%s</title>
%s
</head>
<body>
<p>%s</p>
`, lang, in.Intro.Field("meta"), capitalize(in.Intro.Field("title")), in.CSS, intro)

	if in.HeroImageURL != "" {
		fmt.Fprintf(&b, "<p><img alt=\"%s\" src=\"%s\" /></p>\n", in.HeroImageAlt, in.HeroImageURL)
	}
	fmt.Fprintf(&b, "<h2>%s</h2>\n", capitalize(in.Intro.Field("subheader_1")))
	for _, sentence := range SplitSentences(in.Intro.Field("benefits")) {
		fmt.Fprintf(&b, "<p>%s</p>", sentence)
	}
	b.WriteString("\n")
	return b.String()
}

// FeatureSection renders the feature list: one h3/p pair per
// feature_N/content_N key pair, in ascending numeric order. Features
// without matching content are skipped.
func FeatureSection(features core.ValidatedContent, imgAlt, imgURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n", capitalize(features.Field("subheader_2")))

	for _, n := range pairNumbers(features, "feature_", "content_") {
		title := features.Field("feature_" + n)
		content := features.Field("content_" + n)
		fmt.Fprintf(&b, "<h3 class=\"feature-title\" id=\"feature_%s\"><strong>%s</strong></h3>\n<p>%s</p>\n",
			n, capitalize(title), content)
	}

	if imgURL != "" {
		fmt.Fprintf(&b, "<p><img alt=\"%s\" src=\"%s\"></p>\n", imgAlt, imgURL)
	}
	return b.String()
}

// GuideSection renders the closing section: the guide steps as an
// ordered list and the final sentence, emphasized and carrying the
// second product link, followed by the document close.
func GuideSection(guide core.ValidatedContent, productURL, productTitle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n<p>%s</p>\n<ol>\n",
		capitalize(guide.Field("subheader_3")), guide.Field("subheader_3_message"))

	for _, n := range stepNumbers(guide) {
		fmt.Fprintf(&b, "<li>%s</li>\n", guide.Field("guide_step_"+n+"_content"))
	}
	b.WriteString("</ol>\n")

	final := ProductLink(guide.Field("final_sentence"), productURL, productTitle)
	fmt.Fprintf(&b, "<p><em><strong>%s</strong></em></p>\n</body>\n</html>", final)
	return b.String()
}

// ProductLink rewrites the single asterisk-highlighted span in text into
// an anchor pointing at the product page. The anchor text is the given
// label, or the highlighted span itself when the label is empty. Text
// without a highlight is returned unchanged.
func ProductLink(text, productURL, label string) string {
	match := highlightPattern.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	if label == "" {
		label = match[1]
	}
	anchor := fmt.Sprintf(`<a href="%s" style="%s">%s</a>`, productURL, LinkStyle, label)
	return strings.Replace(text, match[0], anchor, 1)
}

// SplitSentences breaks text at sentence-ending punctuation followed by
// whitespace. The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	rest := text
	for {
		loc := sentenceBoundary.FindStringIndex(rest)
		if loc == nil {
			break
		}
		// The match starts at the terminating punctuation; keep it.
		sentences = append(sentences, rest[:loc[0]+1])
		rest = rest[loc[1]:]
	}
	if rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// HandleAndTitleFromURL derives the product handle and a display title
// from a product page URL. The handle is the final path segment; the
// title is the handle with dashes turned into spaces.
func HandleAndTitleFromURL(productURL string) (handle, title string) {
	trimmed := strings.TrimRight(productURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		handle = trimmed[idx+1:]
	} else {
		handle = trimmed
	}
	title = capitalize(strings.Join(strings.Split(handle, "-"), " "))
	return handle, title
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// pairNumbers returns the numeric suffixes that appear under both the
// title prefix and the content prefix, sorted numerically.
func pairNumbers(content core.ValidatedContent, titlePrefix, contentPrefix string) []string {
	var numbers []string
	for key := range content {
		if !strings.HasPrefix(key, titlePrefix) {
			continue
		}
		n := strings.TrimPrefix(key, titlePrefix)
		if _, ok := content[contentPrefix+n]; ok {
			numbers = append(numbers, n)
		}
	}
	sortNumeric(numbers)
	return numbers
}

// stepNumbers returns the numeric suffixes of guide_step_N_content keys,
// sorted numerically.
func stepNumbers(guide core.ValidatedContent) []string {
	var numbers []string
	for key := range guide {
		if !strings.HasPrefix(key, "guide_step_") || !strings.HasSuffix(key, "_content") {
			continue
		}
		n := strings.TrimSuffix(strings.TrimPrefix(key, "guide_step_"), "_content")
		numbers = append(numbers, n)
	}
	sortNumeric(numbers)
	return numbers
}

func sortNumeric(numbers []string) {
	sort.Slice(numbers, func(i, j int) bool {
		a, errA := strconv.Atoi(numbers[i])
		b, errB := strconv.Atoi(numbers[j])
		if errA != nil || errB != nil {
			return numbers[i] < numbers[j]
		}
		return a < b
	})
}
