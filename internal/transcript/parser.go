// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// State is the parser's position relative to the question being built.
// It is derived from the buffers rather than stored.
type State int

const (
	BetweenQuestions State = iota
	InPrompt
	InAnswer
)

// step is the outcome of one transition rule: whether the rule consumed
// the line, and the question it finalized, if any.
type step struct {
	handled bool
	emitted *types.Question
}

type rule func(Line) (step, error)

// Parser owns the parse context (year, session, opgave) and the buffer of
// the question in progress. Each transition rule is a method; Parse tries
// them in order for every line until one handles it.
type Parser struct {
	cur *Cursor

	year       *int
	session    *types.Session
	opgave     *int
	title      string
	intro      []string
	autoOpgave int // never shrinks within a year; tracks the largest number seen

	label     string
	prompt    []string
	answer    []string
	sources   []string
	inAnswer  bool
	blankSeen bool
}

// NewParser prepares a parser over the full transcript text.
func NewParser(text string) *Parser {
	return &Parser{cur: NewCursor(text)}
}

// Parse converts a transcript into questions. It is a convenience wrapper
// around NewParser(text).Parse().
func Parse(text string) ([]types.Question, error) {
	return NewParser(text).Parse()
}

// Parse consumes the whole transcript. Any structural error aborts the
// parse and no questions are returned.
func (p *Parser) Parse() ([]types.Question, error) {
	rules := []rule{
		p.blank,
		p.yearHeader,
		p.opgaveHeader,
		p.implicitHeading,
		p.subQuestion,
		p.lettered,
		p.reference,
		p.firstLine,
		p.continuation,
	}

	var questions []types.Question
	for {
		raw, ok := p.cur.Next()
		if !ok {
			break
		}
		line := Classify(raw)
		for _, r := range rules {
			st, err := r(line)
			if err != nil {
				return nil, err
			}
			if st.emitted != nil {
				questions = append(questions, *st.emitted)
			}
			if st.handled {
				break
			}
		}
	}

	last, err := p.finalize()
	if err != nil {
		return nil, err
	}
	if last != nil {
		questions = append(questions, *last)
	}
	return questions, nil
}

// State reports whether a question is open and which part is being filled.
func (p *Parser) State() State {
	switch {
	case p.inAnswer:
		return InAnswer
	case len(p.prompt) > 0:
		return InPrompt
	default:
		return BetweenQuestions
	}
}

// blank keeps paragraph breaks inside answers and remembers the gap for
// the continuation rule.
func (p *Parser) blank(l Line) (step, error) {
	if l.Kind != KindBlank {
		return step{}, nil
	}
	if p.inAnswer && len(p.answer) > 0 {
		p.answer = append(p.answer, "")
	}
	p.blankSeen = true
	return step{handled: true}, nil
}

// yearHeader starts a new year and clears all opgave context.
func (p *Parser) yearHeader(l Line) (step, error) {
	if l.Kind != KindYear {
		return step{}, nil
	}
	q, err := p.finalize()
	if err != nil {
		return step{}, err
	}
	year := l.Year
	p.year = &year
	p.session = types.NormalizeSession(l.Session)
	p.opgave = nil
	p.title = ""
	p.intro = nil
	p.autoOpgave = 0
	return step{handled: true, emitted: q}, nil
}

// opgaveHeader handles both "Opgave n." and "Hovedemne n:" headers; they
// share the numbering.
func (p *Parser) opgaveHeader(l Line) (step, error) {
	if l.Kind != KindOpgave && l.Kind != KindTopic {
		return step{}, nil
	}
	q, err := p.finalize()
	if err != nil {
		return step{}, err
	}
	p.setOpgave(l.Number, l.Title)
	p.intro = nil
	return step{handled: true, emitted: q}, nil
}

// implicitHeading treats an unmarked heading as a new opgave numbered
// after every number seen so far in the year.
func (p *Parser) implicitHeading(l Line) (step, error) {
	if l.Kind != KindHeading {
		return step{}, nil
	}
	q, err := p.finalize()
	if err != nil {
		return step{}, err
	}
	p.autoOpgave++
	n := p.autoOpgave
	p.opgave = &n
	p.title = l.Title
	p.intro = nil
	return step{handled: true, emitted: q}, nil
}

// subQuestion handles "Underspørgsmål n - ..." lines. A labeled one opens
// a question; an unlabeled one followed by a lettered block is a lead-in
// for the opgave intro; otherwise it opens an unlabeled question.
func (p *Parser) subQuestion(l Line) (step, error) {
	if l.Kind != KindSubQuestion {
		return step{}, nil
	}
	if l.Label == "" {
		if next, ok := p.cur.PeekNextNonBlank(); ok && IsLettered(next) {
			p.intro = append(p.intro, strings.TrimRight(l.Text, ":"))
			return step{handled: true}, nil
		}
	}
	q, err := p.finalize()
	if err != nil {
		return step{}, err
	}
	p.ensureOpgave(l.Number)
	p.start(l.Label, l.Rest)
	return step{handled: true, emitted: q}, nil
}

// lettered opens a new question for "a) ..." lines.
func (p *Parser) lettered(l Line) (step, error) {
	if l.Kind != KindLettered {
		return step{}, nil
	}
	q, err := p.finalize()
	if err != nil {
		return step{}, err
	}
	p.start(l.Label, l.Rest)
	return step{handled: true, emitted: q}, nil
}

// reference records a citation once a prompt or answer is open. Citations
// never become prompt or answer text.
func (p *Parser) reference(l Line) (step, error) {
	if l.Kind != KindReference || (len(p.prompt) == 0 && !p.inAnswer) {
		return step{}, nil
	}
	if l.Citation != "" {
		p.sources = append(p.sources, l.Citation)
	}
	return step{handled: true}, nil
}

// firstLine places text seen while no question is open: intro when a
// lettered block follows, otherwise the first prompt line of an unlabeled
// question.
func (p *Parser) firstLine(l Line) (step, error) {
	if len(p.prompt) > 0 || p.inAnswer {
		return step{}, nil
	}
	if next, ok := p.cur.PeekNextNonBlank(); ok && IsLettered(next) {
		p.intro = append(p.intro, strings.TrimRight(l.Text, ":"))
		return step{handled: true}, nil
	}
	p.start("", l.Text)
	return step{handled: true}, nil
}

// continuation extends the open question. Indented lines, "Svar:" lines,
// anything after the answer has begun, and a line following a blank all
// belong to the answer; the rest extends the prompt.
func (p *Parser) continuation(l Line) (step, error) {
	if answerMarker(l.Raw, l.Text) || p.inAnswer || (p.blankSeen && len(p.prompt) > 0) {
		p.inAnswer = true
		if content := stripAnswerMarker(l.Text); content != "" {
			p.answer = append(p.answer, content)
		}
	} else {
		p.prompt = append(p.prompt, l.Text)
	}
	p.blankSeen = false
	return step{handled: true}, nil
}

func (p *Parser) setOpgave(n int, title string) {
	p.opgave = &n
	if n > p.autoOpgave {
		p.autoOpgave = n
	}
	p.title = title
}

// ensureOpgave synthesizes an opgave from an underspørgsmål number when no
// header has been seen in the current year.
func (p *Parser) ensureOpgave(n int) {
	if p.opgave != nil {
		return
	}
	title := p.title
	if title == "" {
		title = "Opgave " + strconv.Itoa(n)
	}
	p.setOpgave(n, title)
}

func (p *Parser) start(label, firstPrompt string) {
	p.label = label
	p.prompt = []string{firstPrompt}
	p.answer = nil
	p.sources = nil
	p.inAnswer = false
}

func (p *Parser) reset() {
	p.label = ""
	p.prompt = nil
	p.answer = nil
	p.sources = nil
	p.inAnswer = false
}

// finalize closes the question in progress. An empty buffer is a false
// start and is dropped without a trace, as is a buffer whose prompt is
// blank once whitespace is collapsed.
func (p *Parser) finalize() (*types.Question, error) {
	if len(p.prompt) == 0 && len(p.answer) == 0 {
		p.reset()
		return nil, nil
	}
	if p.year == nil {
		return nil, &StructuralParseError{
			Line:   p.cur.LineNumber(),
			Opgave: p.opgave,
			Reason: "question content before any year header",
		}
	}
	if p.opgave == nil {
		return nil, &StructuralParseError{
			Line:   p.cur.LineNumber(),
			Year:   p.year,
			Reason: "question content before any opgave header",
		}
	}

	prompt := collapseSpaces(strings.Join(p.prompt, " "))
	if prompt == "" {
		p.reset()
		return nil, nil
	}

	answerLines := make([]string, len(p.answer))
	for i, line := range p.answer {
		answerLines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}

	q := &types.Question{
		Year:        *p.year,
		Session:     p.session,
		Opgave:      *p.opgave,
		OpgaveTitle: p.title,
		Prompt:      prompt,
		Answer:      strings.TrimSpace(strings.Join(answerLines, "\n")),
		Sources:     append([]string{}, p.sources...),
		Images:      []string{},
	}
	if len(p.intro) > 0 {
		q.OpgaveIntro = types.StringPtr(collapseSpaces(strings.Join(p.intro, " ")))
	}
	if p.label != "" {
		q.Label = types.StringPtr(strings.ToLower(p.label))
	}

	p.reset()
	return q, nil
}
