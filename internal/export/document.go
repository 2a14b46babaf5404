package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var worksheetTmpl = template.Must(template.ParseFS(templateFS, "templates/worksheet.html.tmpl"))

const (
	shortAnswerLines = 5
	longAnswerLines  = 8
	pixelsPerLine    = 18
)

type docOption struct {
	Letter string
	Text   template.HTML
}

type docItem struct {
	Number      int
	Text        template.HTML
	Marks       string
	Image       template.URL
	Options     []docOption
	Answer      template.HTML
	Explanation template.HTML
	SpaceLines  int
	SpaceHeight int
}

type docData struct {
	Title          string
	QuestionCount  int
	TotalMarks     int
	Date           string
	MathStylesheet string
	IncludeAnswers bool
	Items          []docItem
}

// Document builds the self-contained HTML worksheet. Math failures inside a
// field degrade to source text and never abort the document.
func (e *Exporter) Document(ctx context.Context, topic string, qs []question.Question, includeAnswers bool) ([]byte, error) {
	data := docData{
		Title:          title(topic),
		QuestionCount:  len(qs),
		TotalMarks:     question.TotalMarks(qs),
		Date:           e.now().Format("January 2, 2006"),
		MathStylesheet: e.mathCSS,
		IncludeAnswers: includeAnswers,
		Items:          make([]docItem, 0, len(qs)),
	}
	for i, q := range qs {
		it := docItem{
			Number: i + 1,
			Text:   e.html(q.Text),
			Marks:  q.MarksLabel(),
		}
		if src, ok := q.Image(); ok {
			it.Image = e.image(ctx, src)
		}
		if q.ListsOptions() {
			for j, opt := range q.Options {
				it.Options = append(it.Options, docOption{Letter: question.Letter(j), Text: e.html(opt)})
			}
		}
		if includeAnswers {
			it.Answer = e.policy.HTML(resolveAnswer(q, e.renderer.Render))
			it.Explanation = e.html(q.Explanation)
		}
		switch q.Type {
		case question.TypeShort:
			it.SpaceLines = shortAnswerLines
		case question.TypeLong:
			it.SpaceLines = longAnswerLines
		}
		it.SpaceHeight = it.SpaceLines * pixelsPerLine
		data.Items = append(data.Items, it)
	}

	var buf bytes.Buffer
	if err := worksheetTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render worksheet: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) html(s string) template.HTML {
	return e.policy.HTML(e.renderer.Render(s))
}

// image inlines remote images when an embedder is configured. Only data:image
// and http(s) sources survive.
func (e *Exporter) image(ctx context.Context, src string) template.URL {
	if e.images != nil {
		src = e.images.Embed(ctx, src)
	}
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:image/") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return template.URL(src)
	}
	return ""
}

func title(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return "Worksheet"
	}
	return topic
}
