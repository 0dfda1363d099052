package usecase

import (
	"fmt"
	"strings"

	"coursemint/domain/model"
)

// maxSourceChars bounds the document text embedded in the prompt.
const maxSourceChars = 48000

const outputContract = `Respond with a single JSON object and nothing else:
{
  "title": string,
  "description": string (one or two sentences),
  "tags": [string] (3 to 8 short lowercase tags),
  "keyPoints": [string] (3 to 7 takeaways),
  "estimatedReadTime": integer (minutes),
  "price": number,
  "content": %s
}`

var systemPrompts = map[model.ContentType]string{
	model.ContentTypeBlog: "You are an editor who turns source documents into engaging long-form blog posts. " +
		"Write in clear, well structured markdown with headings, short paragraphs and concrete examples taken from the source. " +
		"Never invent facts that are not supported by the source.",
	model.ContentTypeListicle: "You are an editor who turns source documents into skimmable listicles. " +
		"Write markdown made of a short introduction followed by a numbered list where every item has a bold heading and a short explanation. " +
		"Never invent facts that are not supported by the source.",
	model.ContentTypeCourse: "You are an instructional designer who turns source documents into short online courses. " +
		"Split the material into 3 to 8 lessons. Each lesson has a title, markdown content and one multiple-choice quiz " +
		"with exactly 4 options and the zero-based index of the correct option. Never invent facts that are not supported by the source.",
}

var contentContracts = map[model.ContentType]string{
	model.ContentTypeBlog:     `string (the full markdown article)`,
	model.ContentTypeListicle: `string (the full markdown listicle)`,
	model.ContentTypeCourse:   `[{"title": string, "content": string (markdown), "quiz": {"question": string, "options": [string, string, string, string], "correctAnswer": integer}}]`,
}

func buildPrompts(sourceText string, contentType model.ContentType, meta Metadata) (string, string) {
	if len(sourceText) > maxSourceChars {
		sourceText = truncateRunes(sourceText, maxSourceChars)
	}
	var b strings.Builder
	if t := strings.TrimSpace(meta.Title); t != "" {
		fmt.Fprintf(&b, "Working title: %s\n", t)
	}
	if d := strings.TrimSpace(meta.Description); d != "" {
		fmt.Fprintf(&b, "Creator notes: %s\n", d)
	}
	fmt.Fprintf(&b, "Price: %.2f\n\n", meta.Price)
	b.WriteString("Source document:\n\"\"\"\n")
	b.WriteString(sourceText)
	b.WriteString("\n\"\"\"\n\n")
	fmt.Fprintf(&b, outputContract, contentContracts[contentType])
	return systemPrompts[contentType], b.String()
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
