package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Link
	}{
		{
			name: "inline",
			body: "Start with [the basics](sql/basics.md#select).",
			want: []Link{{Kind: LinkKindInline, Destination: "sql/basics.md#select"}},
		},
		{
			name: "image",
			body: "![Join types](/img/joins.png)",
			want: []Link{{Kind: LinkKindImage, Destination: "/img/joins.png"}},
		},
		{
			name: "autolink",
			body: "<https://curl.se/docs/>",
			want: []Link{{Kind: LinkKindAuto, Destination: "https://curl.se/docs/"}},
		},
		{
			name: "reference usage and definitions",
			body: "Read [Postman][pm].\n\n[unused]: tools/unused.md\n[pm]: tools/postman.md\n",
			want: []Link{
				{Kind: LinkKindInline, Destination: "tools/postman.md"},
				{Kind: LinkKindReferenceDefinition, Destination: "tools/postman.md"},
				{Kind: LinkKindReferenceDefinition, Destination: "tools/unused.md"},
			},
		},
		{
			name: "code is not scanned",
			body: "Inline `[x](./inline.md)`\n\n```md\n[x](./fence.md)\n```\n\nReal: [ok](./real.md)\n",
			want: []Link{{Kind: LinkKindInline, Destination: "./real.md"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := ExtractLinks([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, links)
		})
	}
}

func TestIsExternal(t *testing.T) {
	for dest, want := range map[string]bool{
		"https://example.com":   true,
		"//cdn.example.com/a":   true,
		"mailto:team@example":   true,
		"/docs/intro/":          false,
		"../sql/basics.md":      false,
		"#anchor":               false,
		"img/diagram.png?raw=1": false,
	} {
		assert.Equal(t, want, IsExternal(dest), dest)
	}
}

func TestMarkdownTarget(t *testing.T) {
	tests := []struct {
		source, dest     string
		target, fragment string
		ok               bool
	}{
		{source: "intro.md", dest: "sql/basics.md", target: "sql/basics.md", ok: true},
		{source: "sql/basics.md", dest: "./querying.md#where", target: "sql/querying.md", fragment: "where", ok: true},
		{source: "sql/basics.md", dest: "../curl/basics.markdown", target: "curl/basics.markdown", ok: true},
		{source: "sql/basics.md", dest: "/tools/git.md", target: "tools/git.md", ok: true},
		{source: "intro.md", dest: "https://example.com/readme.md"},
		{source: "intro.md", dest: "#top"},
		{source: "intro.md", dest: "/docs/intro/"},
		{source: "intro.md", dest: "img/a.png"},
		{source: "intro.md", dest: ""},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			target, fragment, ok := MarkdownTarget(tt.source, tt.dest)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.fragment, fragment)
		})
	}
}
