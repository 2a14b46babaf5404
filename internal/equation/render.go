// Package equation turns question text carrying LaTeX fragments and escaped
// newlines into HTML with MathML for every $$display$$ and $inline$ span.
package equation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

type Mode string

const (
	Display Mode = "display"
	Inline  Mode = "inline"
)

var (
	reDoubleEscaped = regexp.MustCompile(`\\\\([A-Za-z]+)`)
	reEscapedNL     = regexp.MustCompile(`\\(n[A-Za-z]*)`)
	reCommand       = regexp.MustCompile(`\\([A-Za-z]+)`)
	reMathElement   = regexp.MustCompile(`(?s)<math\b.*?</math>`)
	reDisplay       = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	reInline        = regexp.MustCompile(`\$([^$\n]+?)\$`)
	reBegin         = regexp.MustCompile(`\\(begin|end)\{([^}]*)\}`)
	reLeftRight     = regexp.MustCompile(`\\(left|right)\b`)
)

// Renderer is safe for concurrent use.
type Renderer struct {
	mu        sync.Mutex
	convert   func(source []byte, w io.Writer) error
	log       *zap.Logger
	onFailure func(Mode)
}

type Option func(*Renderer)

func WithLogger(l *zap.Logger) Option { return func(r *Renderer) { r.log = l } }

// WithFailureHook is called once for every span that falls back to its source.
func WithFailureHook(fn func(Mode)) Option { return func(r *Renderer) { r.onFailure = fn } }

func New(opts ...Option) *Renderer {
	md := goldmark.New(goldmark.WithExtensions(treeblood.MathML()))
	r := &Renderer{
		convert: func(source []byte, w io.Writer) error { return md.Convert(source, w) },
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type segKind int

const (
	segText segKind = iota
	segDisplay
	segInline
	segOpaque
)

type segment struct {
	kind segKind
	s    string
}

// Render returns display-ready HTML. It never fails; a span that cannot be
// typeset is kept with its delimiters.
func (r *Renderer) Render(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range split(normalize(text)) {
		switch seg.kind {
		case segText:
			b.WriteString(breaks(substitute(textNewlines(seg.s))))
		case segOpaque:
			b.WriteString(seg.s)
		case segDisplay:
			b.WriteString(r.span(Display, seg.s))
		case segInline:
			b.WriteString(r.span(Inline, seg.s))
		}
	}
	return b.String()
}

// Plain is Render without HTML: real newlines, symbols substituted outside
// math, math source left in place with its delimiters.
func (r *Renderer) Plain(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range split(normalize(text)) {
		switch seg.kind {
		case segText:
			b.WriteString(substitute(textNewlines(seg.s)))
		case segDisplay:
			b.WriteString("$$" + seg.s + "$$")
		case segInline:
			b.WriteString("$" + seg.s + "$")
		default:
			b.WriteString(seg.s)
		}
	}
	return b.String()
}

func (r *Renderer) span(mode Mode, src string) string {
	delim := "$"
	if mode == Display {
		delim = "$$"
	}
	out, err := r.typeset(mode, src)
	if err != nil {
		r.log.Debug("math render fallback",
			zap.String("mode", string(mode)),
			zap.String("source", src),
			zap.Error(err))
		if r.onFailure != nil {
			r.onFailure(mode)
		}
		return delim + src + delim
	}
	if mode == Display {
		return `<span class="math-display">` + out + `</span>`
	}
	return `<span class="math-inline">` + out + `</span>`
}

func (r *Renderer) typeset(mode Mode, src string) (string, error) {
	tex := strings.TrimSpace(src)
	if err := check(tex); err != nil {
		return "", err
	}
	delim := "$"
	if mode == Display {
		delim = "$$"
	}
	var buf bytes.Buffer
	r.mu.Lock()
	err := r.convert([]byte(delim+tex+delim), &buf)
	r.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	out = strings.TrimSpace(out)
	switch {
	case !strings.HasPrefix(out, "<math") || !strings.HasSuffix(out, "</math>"):
		return "", errors.New("converter produced no math element")
	case strings.Contains(out, "<merror"):
		return "", errors.New("converter reported a math error")
	}
	return out, nil
}

// check rejects sources the converter would typeset into garbage.
func check(tex string) error {
	if tex == "" {
		return errors.New("empty math span")
	}
	depth := 0
	for i := 0; i < len(tex); i++ {
		switch tex[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return errors.New("unbalanced braces")
			}
		}
	}
	if depth != 0 {
		return errors.New("unbalanced braces")
	}

	lr := 0
	for _, m := range reLeftRight.FindAllStringSubmatch(tex, -1) {
		if m[1] == "left" {
			lr++
		} else if lr--; lr < 0 {
			return errors.New(`\right without \left`)
		}
	}
	if lr != 0 {
		return errors.New(`\left without \right`)
	}

	var envs []string
	for _, m := range reBegin.FindAllStringSubmatch(tex, -1) {
		if m[1] == "begin" {
			envs = append(envs, m[2])
			continue
		}
		if len(envs) == 0 || envs[len(envs)-1] != m[2] {
			return fmt.Errorf(`unmatched \end{%s}`, m[2])
		}
		envs = envs[:len(envs)-1]
	}
	if len(envs) > 0 {
		return fmt.Errorf(`unmatched \begin{%s}`, envs[len(envs)-1])
	}
	return nil
}

// normalize runs the two passes that apply to the whole string: collapsing
// double-escaped commands and turning literal \n into newlines. A \n that
// starts a known n-command survives here; inside math it is that command,
// in text textNewlines still breaks the line.
func normalize(text string) string {
	text = reDoubleEscaped.ReplaceAllStringFunc(text, func(m string) string {
		if knownCommands[m[2:]] {
			return m[1:]
		}
		return m
	})
	return reEscapedNL.ReplaceAllStringFunc(text, func(m string) string {
		if nCommands[m[1:]] {
			return m
		}
		return "\n" + m[2:]
	})
}

func textNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func breaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func substitute(s string) string {
	return reCommand.ReplaceAllStringFunc(s, func(m string) string {
		if u, ok := symbols[m[1:]]; ok {
			return u
		}
		return m
	})
}

// split cuts text into existing <math> elements, $$display$$ spans, $inline$
// spans and plain text, in that precedence.
func split(text string) []segment {
	var out []segment
	for _, s := range cut(text, reMathElement, segOpaque) {
		if s.kind != segText {
			out = append(out, s)
			continue
		}
		for _, d := range cut(s.s, reDisplay, segDisplay) {
			if d.kind != segText {
				out = append(out, d)
				continue
			}
			out = append(out, cut(d.s, reInline, segInline)...)
		}
	}
	return out
}

func cut(text string, re *regexp.Regexp, kind segKind) []segment {
	var out []segment
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = append(out, segment{segText, text[last:loc[0]]})
		}
		if kind == segOpaque {
			out = append(out, segment{kind, text[loc[0]:loc[1]]})
		} else {
			out = append(out, segment{kind, text[loc[2]:loc[3]]})
		}
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, segment{segText, text[last:]})
	}
	return out
}
