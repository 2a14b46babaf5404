// Package sanitize is the allow-list applied to rendered question HTML before
// it reaches a template as trusted markup.
package sanitize

import (
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var mathElements = []string{
	"math", "semantics", "annotation", "annotation-xml",
	"mrow", "mi", "mo", "mn", "ms", "mtext", "mspace", "merror",
	"msup", "msub", "msubsup", "mfrac", "msqrt", "mroot",
	"munder", "mover", "munderover", "mmultiscripts", "mprescripts", "none",
	"mtable", "mtr", "mtd", "mlabeledtr",
	"mstyle", "mpadded", "mphantom", "menclose", "mfenced",
}

var mathAttrs = []string{
	"xmlns", "display", "displaystyle", "scriptlevel", "mathvariant", "mathsize",
	"stretchy", "fence", "separator", "symmetric", "largeop", "movablelimits",
	"accent", "accentunder", "form", "lspace", "rspace", "minsize", "maxsize",
	"linethickness", "width", "height", "depth", "voffset",
	"columnalign", "rowalign", "columnspacing", "rowspacing", "columnlines",
	"rowlines", "frame", "rowspan", "columnspan", "notation", "encoding",
	"open", "close", "separators", "title", "intent", "mathcolor", "linebreak",
}

// treeblood nudges spacing with inline margins on mspace
var mathSpacing = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+(em|ex|px)$`)

type Policy struct {
	p *bluemonday.Policy
}

// New permits MathML, a few inline formatting tags and images with http(s)
// or data sources. Everything else is stripped.
func New() *Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(mathElements...)
	// most MathML nodes carry no attributes; bluemonday drops those unless told
	p.AllowNoAttrs().OnElements(mathElements...)
	p.AllowAttrs(mathAttrs...).OnElements(mathElements...)
	p.AllowStyles("margin-left", "margin-right").Matching(mathSpacing).OnElements(mathElements...)
	p.AllowElements("br", "b", "strong", "i", "em", "u", "sub", "sup", "p", "span", "div", "code", "pre")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements(append([]string{"span", "div"}, mathElements...)...)
	p.AllowImages()
	p.AllowDataURIImages()
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return &Policy{p: p}
}

func (s *Policy) Clean(html string) string {
	return s.p.Sanitize(html)
}

// HTML cleans and marks the result safe for html/template.
func (s *Policy) HTML(html string) template.HTML {
	return template.HTML(s.p.Sanitize(html))
}
