package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnparsedLinks(t *testing.T) {
	src := []byte("" +
		"See [the guide](getting started.md) and ![shot](img/my shot.png).\n" +
		"Fine: [ok](ok.md) and [titled](ok.md \"Title\").\n" +
		"Wrapped: [wrapped](<with space.md>)\n" +
		"Inline code: `[x](not a link.md)`\n" +
		"\n" +
		"```\n" +
		"[x](in fence.md)\n" +
		"```\n" +
		"\n" +
		"    [x](indented code.md)\n" +
		"\n" +
		"[ref]: reference target.md \"Title\"\n" +
		"[^1]: a footnote with spaces\n")

	assert.Equal(t, []Link{
		{Kind: LinkKindInline, Destination: "getting started.md"},
		{Kind: LinkKindImage, Destination: "img/my shot.png"},
		{Kind: LinkKindReferenceDefinition, Destination: "reference target.md"},
	}, UnparsedLinks(src))
}

func TestUnparsedLinks_None(t *testing.T) {
	assert.Empty(t, UnparsedLinks([]byte("# Title\n\n[a](b.md) ![c](d.png)\n")))
}
