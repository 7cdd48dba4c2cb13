package models

const (
	StudyQuiz       = "quiz"
	StudyFlashcards = "flashcards"
	StudyNotes      = "notes"
	StudyMindmap    = "mindmap"
)

type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type NotesSection struct {
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

type MindmapNode struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Parent string `json:"parent,omitempty"`
}

// StudyContent holds exactly one of the per-kind payloads.
type StudyContent struct {
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions,omitempty"`
	Cards     []Flashcard    `json:"cards,omitempty"`
	Sections  []NotesSection `json:"sections,omitempty"`
	Nodes     []MindmapNode  `json:"nodes,omitempty"`
	FromCache bool           `json:"from_cache"`
}
