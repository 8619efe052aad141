package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownHelpers(t *testing.T) {
	assert.Equal(t, "[a](https://x)", Link("a", "https://x"))
	assert.Equal(t, "1. foo", ListItem(0, "foo"))
	assert.Equal(t, "**b** *i*", Bold("b")+" "+Italic("i"))
	assert.Equal(t, "```bash\nls\n```", CodeBlock("bash", "ls"))
	assert.Equal(t, "a\nb", Lines([]string{"a", "b"}))
}

func TestSpacerField(t *testing.T) {
	assert.True(t, SpacerField.IsSpacer())
	assert.False(t, SpacerField.Inline)
	assert.False(t, Field{Name: "x", Value: ZeroWidthSpace}.IsSpacer())
}
