package export

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

var (
	headerRule = strings.Repeat("=", 50)
	itemRule   = strings.Repeat("─", 50)
)

// Text writes the fixed-width transcript.
func (e *Exporter) Text(topic string, qs []question.Question, includeAnswers bool) []byte {
	topic = title(topic)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", topic, strings.Repeat("=", utf8.RuneCountInString(topic)))
	fmt.Fprintf(&b, "Questions: %d\n", len(qs))
	fmt.Fprintf(&b, "Total Marks: %d\n", question.TotalMarks(qs))
	fmt.Fprintf(&b, "Date: %s\n\n", e.now().Format("1/2/2006"))
	fmt.Fprintf(&b, "%s\n\n", headerRule)

	for i, q := range qs {
		e.writeItem(&b, i+1, q)
		if includeAnswers {
			fmt.Fprintf(&b, "\nAnswer: %s\n", resolveAnswer(q, e.renderer.Plain))
			fmt.Fprintf(&b, "\nExplanation: %s\n", e.renderer.Plain(q.Explanation))
		}
		fmt.Fprintf(&b, "\n%s\n\n", itemRule)
	}
	return []byte(b.String())
}

// Transcript is the clipboard form: question blocks only, no header and no
// answers, separated by blank lines.
func (e *Exporter) Transcript(qs []question.Question) string {
	blocks := make([]string, 0, len(qs))
	for i, q := range qs {
		var b strings.Builder
		e.writeItem(&b, i+1, q)
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func (e *Exporter) writeItem(b *strings.Builder, n int, q question.Question) {
	fmt.Fprintf(b, "Q%d. %s %s\n", n, e.renderer.Plain(q.Text), q.MarksLabel())
	if !q.ListsOptions() {
		return
	}
	for j, opt := range q.Options {
		fmt.Fprintf(b, "%s. %s\n", question.Letter(j), e.renderer.Plain(opt))
	}
}

var ErrNoSummary = errors.New("transcript has no summary lines")

// ParseSummary reads the question count and total marks back out of a text
// transcript.
func ParseSummary(text string) (questions, marks int, err error) {
	var gotQ, gotM bool
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() && !(gotQ && gotM) {
		line := sc.Text()
		switch {
		case !gotQ && strings.HasPrefix(line, "Questions: "):
			if questions, err = strconv.Atoi(strings.TrimPrefix(line, "Questions: ")); err != nil {
				return 0, 0, fmt.Errorf("parse question count: %w", err)
			}
			gotQ = true
		case !gotM && strings.HasPrefix(line, "Total Marks: "):
			if marks, err = strconv.Atoi(strings.TrimPrefix(line, "Total Marks: ")); err != nil {
				return 0, 0, fmt.Errorf("parse total marks: %w", err)
			}
			gotM = true
		}
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	if !gotQ || !gotM {
		return 0, 0, ErrNoSummary
	}
	return questions, marks, nil
}
