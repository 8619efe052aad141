package chat

import (
	"fmt"
	"strings"
)

// Link renders a markdown link.
func Link(text, url string) string {
	return fmt.Sprintf("[%s](%s)", text, url)
}

// ListItem renders a numbered list entry for a zero-based index.
func ListItem(index int, text string) string {
	return fmt.Sprintf("%d. %s", index+1, text)
}

// Bold wraps text in strong emphasis.
func Bold(text string) string {
	return "**" + text + "**"
}

// Italic wraps text in emphasis.
func Italic(text string) string {
	return "*" + text + "*"
}

// CodeBlock renders a fenced code block with a language hint.
func CodeBlock(lang, code string) string {
	return "```" + lang + "\n" + code + "\n```"
}

// Lines joins list entries into a description body.
func Lines(items []string) string {
	return strings.Join(items, "\n")
}
