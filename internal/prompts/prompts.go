// Package prompts builds the conversations sent to the generative model.
// Each builder names the exact JSON keys the matching content contract
// validates, so a compliant response passes validation on the first try.
package prompts

import (
	"fmt"
	"strings"

	"blogsmith/internal/core"
)

// Options configures prompt generation for one article.
type Options struct {
	ProductTitle       string // Display title of the product being written about
	ProductDescription string // Product body text, used as source material
	Tags               string // Comma-separated product tags
	Language           string // Output language, defaults to English
	MinFeatures        int    // Feature pairs the model must produce
	MinSteps           int    // Guide steps the model must produce
}

// DefaultOptions returns the generation defaults for a product article.
func DefaultOptions(productTitle string) Options {
	return Options{
		ProductTitle: productTitle,
		Language:     "English",
		MinFeatures:  3,
		MinSteps:     3,
	}
}

func (o Options) language() string {
	if o.Language == "" {
		return "English"
	}
	return o.Language
}

const systemRole = "You are an experienced e-commerce copywriter. " +
	"You write engaging, factual marketing articles about store products. " +
	"You always answer with a single valid JSON object and nothing else."

// BuildIntroConversation creates the conversation for the opening
// section: title, introduction, first subheader, benefits and a meta
// description.
func BuildIntroConversation(opts Options) []core.Message {
	var user strings.Builder

	fmt.Fprintf(&user, "Write the opening of a blog article about the product %q in %s.\n\n", opts.ProductTitle, opts.language())
	writeSourceMaterial(&user, opts)

	user.WriteString("Respond with a JSON object containing exactly these keys:\n")
	user.WriteString("- \"title\": an engaging article title\n")
	user.WriteString("- \"introduction\": one paragraph introducing the product. ")
	fmt.Fprintf(&user, "Wrap exactly one short mention of the product in single asterisks, like *%s*. ", opts.ProductTitle)
	user.WriteString("The wrapped text must be much shorter than the paragraph itself.\n")
	user.WriteString("- \"subheader_1\": a subheader introducing the benefits\n")
	user.WriteString("- \"benefits\": three to five full sentences describing the benefits\n")
	user.WriteString("- \"meta\": a meta description of at most 155 characters\n")

	return conversation(user.String())
}

// BuildFeatureConversation creates the conversation for the feature
// section: a subheader plus numbered feature and content pairs.
func BuildFeatureConversation(opts Options) []core.Message {
	minFeatures := opts.MinFeatures
	if minFeatures <= 0 {
		minFeatures = 3
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Write the feature section of a blog article about the product %q in %s.\n\n", opts.ProductTitle, opts.language())
	writeSourceMaterial(&user, opts)

	user.WriteString("Respond with a JSON object containing:\n")
	user.WriteString("- \"subheader_2\": a subheader introducing the features\n")
	fmt.Fprintf(&user, "- at least %d numbered pairs of keys named \"feature_N\" and \"content_N\", starting at N=1:\n", minFeatures)
	user.WriteString("  \"feature_1\" is a short feature name, \"content_1\" is one paragraph about it, and so on.\n")
	user.WriteString("Every feature_N key must have a matching content_N key.\n")

	return conversation(user.String())
}

// BuildGuideConversation creates the conversation for the closing
// section: a how-to guide with numbered steps and a call to action.
func BuildGuideConversation(opts Options) []core.Message {
	minSteps := opts.MinSteps
	if minSteps <= 0 {
		minSteps = 3
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Write the closing how-to section of a blog article about the product %q in %s.\n\n", opts.ProductTitle, opts.language())
	writeSourceMaterial(&user, opts)

	user.WriteString("Respond with a JSON object containing:\n")
	user.WriteString("- \"subheader_3\": a subheader introducing the guide\n")
	user.WriteString("- \"subheader_3_message\": one sentence leading into the steps\n")
	fmt.Fprintf(&user, "- at least %d numbered pairs of keys named \"guide_step_N\" and \"guide_step_N_content\", starting at N=1:\n", minSteps)
	user.WriteString("  \"guide_step_1\" is a short step name, \"guide_step_1_content\" is one or two sentences carrying it out, and so on.\n")
	user.WriteString("- \"final_sentence\": a closing call to action. ")
	fmt.Fprintf(&user, "Wrap exactly one short mention of the product in single asterisks, like *%s*.\n", opts.ProductTitle)

	return conversation(user.String())
}

func writeSourceMaterial(b *strings.Builder, opts Options) {
	if opts.ProductDescription != "" {
		fmt.Fprintf(b, "Product description:\n%s\n\n", opts.ProductDescription)
	}
	if opts.Tags != "" {
		fmt.Fprintf(b, "Product tags: %s\n\n", opts.Tags)
	}
}

func conversation(user string) []core.Message {
	return []core.Message{
		{Role: core.RoleSystem, Content: systemRole},
		{Role: core.RoleUser, Content: user},
	}
}
