// Package render turns backend responses into display markup.
//
// Every function is pure. Untrusted fields are escaped with Escape; answer
// text goes through Markdown, which sanitises its own output instead.
package render

import (
	"bytes"
	"log"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const highlightStyle = "github"

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown

	answerPolicyOnce sync.Once
	answerPolicy     *bluemonday.Policy
)

func markdownEngine() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle(highlightStyle),
					highlighting.WithGuessLanguage(true),
					highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
				),
			),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		)
	})
	return markdown
}

// AnswerPolicy allows the formatting produced by the markdown pipeline plus
// the class attributes emitted by the highlighter.
func AnswerPolicy() *bluemonday.Policy {
	answerPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").OnElements("code", "pre", "span", "div")
		policy.AllowURLSchemes("http", "https", "mailto")
		policy.RequireParseableURLs(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		answerPolicy = policy
	})
	return answerPolicy
}

// Markdown converts an answer to sanitised markup. Fenced code blocks are
// highlighted using their language hint, or a guessed lexer when the hint is
// missing or unknown. It never panics; on failure the answer is returned as an
// escaped paragraph.
func Markdown(md string) (out string) {
	if md == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[render] markdown panic, falling back to plain text: %v", r)
			out = plainParagraph(md)
		}
	}()
	var buf bytes.Buffer
	if err := markdownEngine().Convert([]byte(md), &buf); err != nil {
		log.Printf("[render] markdown error, falling back to plain text: %v", err)
		return plainParagraph(md)
	}
	return AnswerPolicy().Sanitize(buf.String())
}

func plainParagraph(text string) string {
	return "<p>" + Escape(text) + "</p>"
}
