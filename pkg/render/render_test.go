package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListMarkers(t *testing.T) {
	segs := Parse("Options: 1. Milan 2. Porto")
	assert.Equal(t, "Options: \n1. Milan \n2. Porto", Visible(segs))

	// Leading markers and markers already at line start stay put.
	assert.Equal(t, "1. a\n2. b", Visible(Parse("1. a\n2. b")))
}

func TestParseLinks(t *testing.T) {
	long := "https://glassfactory.example.com/factories/leather-goods/italy/milan-atelier-42"
	segs := Parse("See [" + long + "] or https://a.io now")

	var links []Segment
	for _, s := range segs {
		if s.Kind == KindLink {
			links = append(links, s)
		}
	}
	require.Len(t, links, 2)
	assert.Equal(t, long, links[0].URL)
	assert.Equal(t, long[:MaxLinkDisplay]+"...", links[0].Text)
	assert.Equal(t, "https://a.io", links[1].Text)
	assert.Equal(t, "See "+long[:MaxLinkDisplay]+"... or https://a.io now", Visible(segs))
}

func TestParseStripsBrackets(t *testing.T) {
	assert.Equal(t, "Try Atelier Rossi today", Visible(Parse("Try [Atelier Rossi] today")))
	assert.Equal(t, "x", Visible(Parse("[[x]]")))
}

func TestVisibleIsIdempotent(t *testing.T) {
	inputs := []string{
		"Hello there",
		"Top picks: 1. [Atelier Rossi] https://rossi.example.com/profile 2. Porto Shoes 3. [https://very-long-domain-name.example.com/path/to/some/factory/profile]",
		"Line\n1. first\n12. twelfth",
		"[[nested]] and [plain]",
		"",
	}
	for _, in := range inputs {
		once := Visible(Parse(in))
		twice := Visible(Parse(once))
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestHTMLMarkup(t *testing.T) {
	out := Markup("Visit [https://rossi.example.com/p?a=1&b=2] <b>now</b> 1. [Rossi]")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + out + "</div>"))
	require.NoError(t, err)

	a := doc.Find("a")
	require.Equal(t, 1, a.Length())
	href, _ := a.Attr("href")
	title, _ := a.Attr("title")
	rel, _ := a.Attr("rel")
	assert.Equal(t, "https://rossi.example.com/p?a=1&b=2", href)
	assert.Equal(t, href, title)
	assert.Equal(t, "noopener noreferrer", rel)

	assert.Equal(t, 0, doc.Find("b").Length(), "raw html must be escaped")
	assert.Equal(t, 1, doc.Find("br").Length())
	assert.Contains(t, doc.Text(), "Rossi")
	assert.NotContains(t, doc.Text(), "[Rossi]")
}

func TestTerminalHyperlinks(t *testing.T) {
	out := Terminal(Parse("go https://a.io"))
	assert.Contains(t, out, "\x1b]8;")
	assert.Contains(t, out, "https://a.io")
	assert.True(t, strings.HasPrefix(out, "go "))
}
