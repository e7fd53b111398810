package utils

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	orderedListRe = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	codeSpanRe    = regexp.MustCompile("``[^`]*``|`[^`]*`")
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicUnderRe = regexp.MustCompile(`\b_([^_]+)_\b`)
	italicStarRe  = regexp.MustCompile(`\*([^*]+)\*`)
	paragraphRe   = regexp.MustCompile(`\n\s*\n`)
)

var (
	codeStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236")).Padding(0, 1)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
	linkStyle   = lipgloss.NewStyle().Underline(true)
	listStyle   = lipgloss.NewStyle().MarginLeft(2)
	quoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// RenderMarkdown applies basic markdown rendering to text. Guide replies use
// headings, lists, emphasis and the occasional link; nothing more.
func RenderMarkdown(text string) string {
	text = normalizeMarkdownNewlines(text)

	var result strings.Builder
	inCodeBlock := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			result.WriteString(codeStyle.MarginLeft(2).Render(line) + "\n")
			continue
		}

		switch {
		case strings.HasPrefix(line, "#"):
			title := strings.TrimSpace(strings.TrimLeft(line, "#"))
			result.WriteString(boldStyle.Render(renderInline(title)) + "\n")
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			result.WriteString(listStyle.Render("• "+renderInline(line[2:])) + "\n")
		case strings.HasPrefix(line, "> "):
			result.WriteString(quoteStyle.Render("│ "+renderInline(line[2:])) + "\n")
		default:
			if m := orderedListRe.FindStringSubmatch(line); m != nil {
				result.WriteString(listStyle.Render(m[1]+". "+renderInline(m[2])) + "\n")
				continue
			}
			result.WriteString(renderInline(line) + "\n")
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}

// renderInline handles code spans first so their content is left alone.
func renderInline(line string) string {
	parts := codeSpanRe.Split(line, -1)
	spans := codeSpanRe.FindAllString(line, -1)

	var b strings.Builder
	for i, part := range parts {
		b.WriteString(renderEmphasis(part))
		if i < len(spans) {
			b.WriteString(codeStyle.Render(strings.Trim(spans[i], "`")))
		}
	}
	return b.String()
}

func renderEmphasis(text string) string {
	text = linkRe.ReplaceAllStringFunc(text, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		return linkStyle.Render(m[1])
	})
	text = boldRe.ReplaceAllStringFunc(text, func(match string) string {
		return boldStyle.Render(strings.Trim(match, "*"))
	})
	text = italicUnderRe.ReplaceAllStringFunc(text, func(match string) string {
		return italicStyle.Render(strings.Trim(match, "_"))
	})
	return italicStarRe.ReplaceAllStringFunc(text, func(match string) string {
		return italicStyle.Render(strings.Trim(match, "*"))
	})
}

// normalizeMarkdownNewlines joins soft-wrapped lines within a paragraph and
// keeps block lines (headings, lists, fences, quotes) on their own.
func normalizeMarkdownNewlines(text string) string {
	var paragraphs []string
	for _, paragraph := range paragraphRe.Split(text, -1) {
		var lines []string
		joinable := false
		for _, line := range strings.Split(strings.TrimSpace(paragraph), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if isBlockLine(line) {
				lines = append(lines, line)
				joinable = false
				continue
			}
			if joinable {
				lines[len(lines)-1] += " " + line
				continue
			}
			lines = append(lines, line)
			joinable = true
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n")
}

func isBlockLine(line string) bool {
	for _, prefix := range []string{"#", "- ", "* ", "```", "> "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return orderedListRe.MatchString(line)
}
