// Package render turns stored assistant text into display segments.
//
// The transform is pure: list markers are pushed onto their own line, URLs
// (optionally wrapped in brackets) become links and any other bracketed
// token loses its brackets.
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const MaxLinkDisplay = 50

var (
	listMarkerRe = regexp.MustCompile(`\d+\.\s`)
	urlRe        = regexp.MustCompile(`\[?(https?://[^\s\]]+)\]?`)
	bracketRe    = regexp.MustCompile(`\[([^\]]+)\]`)
)

type Kind int

const (
	KindText Kind = iota
	KindLink
	KindBreak
)

type Segment struct {
	Kind Kind
	Text string
	URL  string
}

// Parse splits text into text, link and line-break segments.
func Parse(text string) []Segment {
	var segs []Segment

	last := 0
	for _, loc := range listMarkerRe.FindAllStringIndex(text, -1) {
		segs = appendInline(segs, text[last:loc[0]])
		if loc[0] > 0 && text[loc[0]-1] != '\n' {
			segs = append(segs, Segment{Kind: KindBreak})
		}
		segs = appendText(segs, text[loc[0]:loc[1]])
		last = loc[1]
	}
	segs = appendInline(segs, text[last:])

	return segs
}

func appendInline(segs []Segment, part string) []Segment {
	last := 0
	for _, m := range urlRe.FindAllStringSubmatchIndex(part, -1) {
		segs = appendText(segs, stripBrackets(part[last:m[0]]))
		url := part[m[2]:m[3]]
		segs = append(segs, Segment{Kind: KindLink, Text: displayURL(url), URL: url})
		last = m[1]
	}
	return appendText(segs, stripBrackets(part[last:]))
}

func appendText(segs []Segment, s string) []Segment {
	if s == "" {
		return segs
	}
	if n := len(segs); n > 0 && segs[n-1].Kind == KindText {
		segs[n-1].Text += s
		return segs
	}
	return append(segs, Segment{Kind: KindText, Text: s})
}

// stripBrackets repeats until stable so nested brackets like [[x]] collapse fully.
func stripBrackets(s string) string {
	for strings.Contains(s, "[") && strings.Contains(s, "]") {
		next := bracketRe.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}
	return s
}

func displayURL(url string) string {
	if len(url) > MaxLinkDisplay {
		return url[:MaxLinkDisplay] + "..."
	}
	return url
}

// Visible returns the text a reader sees.
func Visible(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case KindBreak:
			sb.WriteByte('\n')
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// HTML renders segments as escaped HTML suitable for a message bubble.
func HTML(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case KindBreak:
			sb.WriteString("<br>")
		case KindLink:
			sb.WriteString(`<a href="`)
			sb.WriteString(html.EscapeString(s.URL))
			sb.WriteString(`" title="`)
			sb.WriteString(html.EscapeString(s.URL))
			sb.WriteString(`" target="_blank" rel="noopener noreferrer">`)
			sb.WriteString(html.EscapeString(s.Text))
			sb.WriteString("</a>")
		default:
			sb.WriteString(html.EscapeString(s.Text))
		}
	}
	return sb.String()
}

// Terminal renders segments with OSC 8 hyperlinks.
func Terminal(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case KindBreak:
			sb.WriteByte('\n')
		case KindLink:
			sb.WriteString(ansi.SetHyperlink(s.URL))
			sb.WriteString(s.Text)
			sb.WriteString(ansi.ResetHyperlink())
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func Markup(text string) string {
	return HTML(Parse(text))
}
