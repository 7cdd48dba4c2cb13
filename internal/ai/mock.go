package ai

import (
	"EduForge/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	mockMaxItems  = 8
	mockMaxLabel  = 60
	emptyMaterial = "No content yet."
)

// Mock is the offline generator. Output depends only on the prompts, so
// the same request always yields the same text.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title := labeledLine(user, "Title:")
	content := section(user, "Content:")

	switch taskOf(system) {
	case TaskSuggest:
		return content, nil
	case TaskGrade:
		return `{"score":0,"feedback":"Your answer was received and will be reviewed by your teacher."}`, nil
	case TaskSummary:
		facts := facts(content, 3)
		if len(facts) == 0 {
			return emptyMaterial, nil
		}
		return strings.Join(facts, " "), nil
	case TaskQuiz:
		return mockJSON(mockQuiz(title, content))
	case TaskFlashcards:
		return mockJSON(mockFlashcards(title, content))
	case TaskNotes:
		return mockJSON(mockNotes(title, content))
	case TaskMindmap:
		return mockJSON(mockMindmap(title, content))
	default:
		return "", fmt.Errorf("mock: unsupported task %q", taskOf(system))
	}
}

func mockJSON(v any) (string, error) {
	out, err := json.Marshal(v)
	return string(out), err
}

func mockQuiz(title, content string) models.StudyContent {
	qs := []models.QuizQuestion{}
	for _, f := range facts(content, 5) {
		qs = append(qs, models.QuizQuestion{
			Question:    "True or false: " + f,
			Options:     []string{"True", "False"},
			AnswerIndex: 0,
		})
	}
	return models.StudyContent{Title: title, Questions: qs}
}

func mockFlashcards(title, content string) models.StudyContent {
	cards := []models.Flashcard{}
	for i, f := range facts(content, mockMaxItems) {
		front, back, ok := strings.Cut(f, ": ")
		if !ok {
			front, back = title+" #"+strconv.Itoa(i+1), f
		}
		cards = append(cards, models.Flashcard{Front: front, Back: back})
	}
	return models.StudyContent{Title: title, Cards: cards}
}

func mockNotes(title, content string) models.StudyContent {
	bullets := facts(content, mockMaxItems)
	if len(bullets) == 0 {
		bullets = []string{emptyMaterial}
	}
	return models.StudyContent{
		Title:    title,
		Sections: []models.NotesSection{{Heading: title, Bullets: bullets}},
	}
}

func mockMindmap(title, content string) models.StudyContent {
	nodes := []models.MindmapNode{{ID: "root", Label: title}}
	for i, f := range facts(content, mockMaxItems) {
		nodes = append(nodes, models.MindmapNode{
			ID:     "n" + strconv.Itoa(i+1),
			Label:  truncate(f, mockMaxLabel),
			Parent: "root",
		})
	}
	return models.StudyContent{Title: title, Nodes: nodes}
}

func labeledLine(prompt, label string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if v, ok := strings.CutPrefix(line, label); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// section returns everything after the line consisting of label.
func section(prompt, label string) string {
	_, rest, ok := strings.Cut(prompt, label+"\n")
	if !ok {
		return ""
	}
	return strings.TrimSuffix(rest, "\n")
}

// facts returns up to n distinct non-empty content lines without list
// markers or block separators.
func facts(content string, n int) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "<<<") {
			continue
		}
		for _, p := range []string{"- [x] ", "- [ ] ", "- ", "* "} {
			line = strings.TrimPrefix(line, p)
		}
		if line == "" || strings.HasSuffix(line, ":") || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}
