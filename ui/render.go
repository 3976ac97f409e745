package ui

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
)

const codeBar = "┃"

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// RenderMarkdown renders a reply for the terminal at the given width.
// Autolink stays off so terminals can detect URLs themselves.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	content = preprocessLinks(content)

	ext := markdown.Extensions() &^ parser.Autolink
	doc := parser.NewWithExtensions(ext).Parse([]byte(content))
	rendered := gomarkdown.Render(doc, markdown.NewRenderer(width-4, 0))

	return strings.TrimRight(postProcessMarkdown(string(rendered), width), "\n")
}

func postProcessMarkdown(rendered string, width int) string {
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	return frameCodeBlocks(rendered, width)
}

// preprocessLinks turns [text](url) into the bare url.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the renderer's left bar on code lines with a
// labelled rule above and a plain rule below the block.
func frameCodeBlocks(s string, width int) string {
	var result []string
	inCode := false

	for _, line := range strings.Split(s, "\n") {
		isCode := strings.Contains(line, codeBar)
		switch {
		case isCode && !inCode:
			inCode = true
			result = append(result, "", Rule("[code]", width-4))
		case !isCode && inCode:
			inCode = false
			result = append(result, Rule("", width-4), "")
		}

		if isCode {
			line = stripCodeBar(line)
		}
		result = append(result, line)
	}
	if inCode {
		result = append(result, Rule("", width-4))
	}

	return strings.Join(result, "\n")
}

func stripCodeBar(line string) string {
	idx := strings.Index(line, codeBar)
	if idx < 0 {
		return line
	}
	rest := line[idx+len(codeBar):]
	return strings.TrimPrefix(rest, " ")
}

// Rule draws a dim horizontal rule of the given display width with label
// centered in it. Width is measured in terminal cells with escapes removed,
// so styled and CJK labels line up.
func Rule(label string, width int) string {
	labelWidth := displayWidth(label)
	if width <= labelWidth {
		return label
	}

	left := (width - labelWidth) / 2
	right := width - labelWidth - left
	return DimStyle.Render(strings.Repeat("━", left)) + label + DimStyle.Render(strings.Repeat("━", right))
}

// displayWidth is the terminal width of s with ANSI escapes removed.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// truncate shortens s to at most width cells, marking the cut with "…".
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
