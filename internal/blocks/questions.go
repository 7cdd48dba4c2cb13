package blocks

import (
	"EduForge/internal/app_errors"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type MultipleChoice struct {
	Question        string   `json:"question"`
	Options         []Option `json:"options"`
	MultipleCorrect bool     `json:"multiple_correct"`
	Shuffle         bool     `json:"shuffle"`
}

type StudentOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MultipleChoiceView struct {
	Question        string          `json:"question"`
	Options         []StudentOption `json:"options"`
	MultipleCorrect bool            `json:"multiple_correct"`
}

func (m *MultipleChoice) check() *app_errors.ValidationError {
	seen := make(map[string]struct{}, len(m.Options))
	for i, o := range m.Options {
		if _, dup := seen[o.ID]; dup {
			return app_errors.NewValidationError(fmt.Sprintf("data.options.%d.id", i), "option ids must be unique")
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}

func (m *MultipleChoice) fields() []Field {
	return []Field{
		{Name: "question", Kind: "textarea"},
		{Name: "options", Kind: "options"},
		{Name: "multiple_correct", Kind: "bool"},
		{Name: "shuffle", Kind: "bool"},
	}
}

func (m *MultipleChoice) studentView(seed int64) any {
	opts := make([]StudentOption, len(m.Options))
	for i, o := range m.Options {
		opts[i] = StudentOption{ID: o.ID, Text: o.Text}
	}
	if m.Shuffle {
		shuffled := make([]StudentOption, len(opts))
		for i, j := range permutation(len(opts), seed) {
			shuffled[i] = opts[j]
		}
		opts = shuffled
	}
	return MultipleChoiceView{Question: m.Question, Options: opts, MultipleCorrect: m.MultipleCorrect}
}

func (m *MultipleChoice) text() string {
	var b strings.Builder
	b.WriteString("Question: " + m.Question + "\nOptions:\n")
	for _, o := range m.Options {
		mark := "[ ]"
		if o.Correct {
			mark = "[x]"
		}
		b.WriteString("- " + mark + " " + o.Text + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *MultipleChoice) publicText() string {
	var b strings.Builder
	b.WriteString("Question: " + m.Question + "\nOptions:\n")
	for _, o := range m.Options {
		b.WriteString("- " + o.Text + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *MultipleChoice) parseText(s string) {
	values, lists := scanLabeled(s)
	if q, ok := values["question"]; ok {
		m.Question = q
	}
	items := lists["options"]
	if len(items) == 0 {
		return
	}
	used := make(map[string]struct{}, len(items))
	opts := make([]Option, 0, len(items))
	for i, item := range items {
		var o Option
		if i < len(m.Options) {
			o = m.Options[i]
		}
		text, correct, marked := optionMark(item)
		o.Text = text
		if marked {
			o.Correct = correct
		}
		if o.ID == "" {
			o.ID = strconv.Itoa(i + 1)
		}
		for n := i + 1; ; n++ {
			if _, taken := used[o.ID]; !taken {
				break
			}
			o.ID = strconv.Itoa(n + 1)
		}
		used[o.ID] = struct{}{}
		opts = append(opts, o)
	}
	m.Options = opts
}

func optionMark(item string) (text string, correct, marked bool) {
	lower := strings.ToLower(item)
	switch {
	case strings.HasPrefix(lower, "[x]"):
		return strings.TrimSpace(item[3:]), true, true
	case strings.HasPrefix(lower, "[ ]"):
		return strings.TrimSpace(item[3:]), false, true
	}
	return item, false, false
}

type choiceAnswer struct {
	Selected []string `json:"selected"`
}

func (m *MultipleChoice) grade(answer json.RawMessage) (*Grade, error) {
	var a choiceAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return nil, app_errors.NewValidationError("answer", "expected {\"selected\": [option ids]}")
	}
	selected := make(map[string]bool, len(a.Selected))
	for _, id := range a.Selected {
		selected[id] = true
	}
	correct := true
	for _, o := range m.Options {
		if o.Correct != selected[o.ID] {
			correct = false
			break
		}
	}
	g := &Grade{MaxScore: 1, Correct: correct}
	if correct {
		g.Score = 1
	}
	return g, nil
}

type OpenQuestion struct {
	Question        string  `json:"question"`
	AIGrading       bool    `json:"ai_grading"`
	GradingCriteria string  `json:"grading_criteria"`
	MaxScore        float64 `json:"max_score"`
}

type OpenQuestionView struct {
	Question string  `json:"question"`
	MaxScore float64 `json:"max_score"`
}

func (o *OpenQuestion) fields() []Field {
	return []Field{
		{Name: "question", Kind: "textarea"},
		{Name: "ai_grading", Kind: "bool"},
		{Name: "grading_criteria", Kind: "textarea"},
		{Name: "max_score", Kind: "number"},
	}
}

func (o *OpenQuestion) studentView(int64) any {
	return OpenQuestionView{Question: o.Question, MaxScore: o.MaxScore}
}

func (o *OpenQuestion) text() string {
	s := "Question: " + o.Question
	if o.GradingCriteria != "" {
		s += "\nCriteria: " + o.GradingCriteria
	}
	return s
}

func (o *OpenQuestion) publicText() string { return "Question: " + o.Question }

func (o *OpenQuestion) parseText(s string) {
	values, _ := scanLabeled(s)
	if q, ok := values["question"]; ok {
		o.Question = q
	}
	if c, ok := values["criteria"]; ok {
		o.GradingCriteria = c
	}
}

// Blank is the marker that stands for one gap in FillInBlank.Text.
const Blank = "___"

type FillInBlank struct {
	Text          string   `json:"text"`
	Answers       []string `json:"answers"`
	CaseSensitive bool     `json:"case_sensitive"`
}

type FillInBlankView struct {
	Text   string `json:"text"`
	Blanks int    `json:"blanks"`
}

func (f *FillInBlank) fields() []Field {
	return []Field{
		{Name: "text", Kind: "textarea"},
		{Name: "answers", Kind: "list"},
		{Name: "case_sensitive", Kind: "bool"},
	}
}

func (f *FillInBlank) studentView(int64) any {
	return FillInBlankView{Text: f.Text, Blanks: len(f.Answers)}
}

func (f *FillInBlank) text() string {
	return "Text: " + f.Text + "\nAnswers: " + strings.Join(f.Answers, " | ")
}

func (f *FillInBlank) publicText() string { return "Text: " + f.Text }

func (f *FillInBlank) parseText(s string) {
	values, _ := scanLabeled(s)
	if t, ok := values["text"]; ok {
		f.Text = t
	}
	if a, ok := values["answers"]; ok {
		if answers := splitList(a, "|"); len(answers) > 0 {
			f.Answers = answers
		}
	}
}

type blanksAnswer struct {
	Answers []string `json:"answers"`
}

func (f *FillInBlank) grade(answer json.RawMessage) (*Grade, error) {
	var a blanksAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return nil, app_errors.NewValidationError("answer", "expected {\"answers\": [strings]}")
	}
	g := &Grade{MaxScore: float64(len(f.Answers))}
	for i, want := range f.Answers {
		if i >= len(a.Answers) {
			break
		}
		got := strings.TrimSpace(a.Answers[i])
		want = strings.TrimSpace(want)
		if got == want || (!f.CaseSensitive && strings.EqualFold(got, want)) {
			g.Score++
		}
	}
	g.Correct = g.Score == g.MaxScore
	return g, nil
}
