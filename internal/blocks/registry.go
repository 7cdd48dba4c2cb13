// Package blocks holds the closed set of assignment block types. Each type
// is registered once below with its default payload and JSON schema; the
// payload struct itself carries the author fields, student view, text
// projection and optional grading for that type.
package blocks

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TypeText           = "text"
	TypeImage          = "image"
	TypeVideo          = "video"
	TypeMultipleChoice = "multiple_choice"
	TypeOpenQuestion   = "open_question"
	TypeFillInBlank    = "fill_in_blank"
	TypeDragDrop       = "drag_drop"
	TypeOrdering       = "ordering"
	TypeMediaEmbed     = "media_embed"
	TypeDivider        = "divider"
)

type Mode string

const (
	ModeAuthor  Mode = "author"
	ModeStudent Mode = "student"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeAuthor, ModeStudent:
		return Mode(s), true
	case "":
		return ModeStudent, true
	}
	return "", false
}

// Field describes one editable property of a payload in the author view.
type Field struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Options []string `json:"options,omitempty"`
}

type Grade struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Correct  bool    `json:"correct"`
}

type payload interface {
	fields() []Field
	studentView(seed int64) any
	text() string
	// parseText overwrites fields it can recover from s and leaves the
	// rest untouched.
	parseText(s string)
}

type checker interface {
	check() *app_errors.ValidationError
}

// publicTexter is implemented by payloads whose text() carries answer
// keys. publicText returns only what a student view shows.
type publicTexter interface {
	publicText() string
}

type grader interface {
	grade(answer json.RawMessage) (*Grade, error)
}

type blockType struct {
	name   string
	schema *gojsonschema.Schema
	empty  func() payload
}

var (
	registry = map[string]*blockType{}
	// order keeps the registration sequence for Types.
	order []string
)

func init() {
	register(TypeText, textSchema, func() payload { return &Text{Style: "normal"} })
	register(TypeImage, imageSchema, func() payload { return &Image{Transform: Transform{Scale: 1}} })
	register(TypeVideo, videoSchema, func() payload { return &Video{Provider: "youtube"} })
	register(TypeMultipleChoice, multipleChoiceSchema, func() payload {
		return &MultipleChoice{Options: []Option{{ID: "1"}, {ID: "2"}}}
	})
	register(TypeOpenQuestion, openQuestionSchema, func() payload { return &OpenQuestion{MaxScore: 10} })
	register(TypeFillInBlank, fillInBlankSchema, func() payload { return &FillInBlank{Answers: []string{}} })
	register(TypeDragDrop, dragDropSchema, func() payload { return &DragDrop{Pairs: []Pair{}} })
	register(TypeOrdering, orderingSchema, func() payload { return &Ordering{Items: []string{}, CorrectOrder: []int{}} })
	register(TypeMediaEmbed, mediaEmbedSchema, func() payload { return &MediaEmbed{} })
	register(TypeDivider, dividerSchema, func() payload { return &Divider{Style: "line"} })
}

func register(name, schema string, empty func() payload) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("blocks: bad schema for %s: %v", name, err))
	}
	registry[name] = &blockType{name: name, schema: s, empty: empty}
	order = append(order, name)
}

func Known(typ string) bool {
	_, ok := registry[typ]
	return ok
}

// Types lists the registered type names in registration order.
func Types() []string {
	return slices.Clone(order)
}

// Default returns the empty payload a freshly placed block of typ starts with.
func Default(typ string) (json.RawMessage, error) {
	t, ok := registry[typ]
	if !ok {
		return nil, unknownType(typ)
	}
	return json.Marshal(t.empty())
}

func Validate(typ string, data json.RawMessage) error {
	_, err := decode(typ, data)
	return err
}

func decode(typ string, data json.RawMessage) (payload, error) {
	t, ok := registry[typ]
	if !ok {
		return nil, unknownType(typ)
	}
	if len(data) == 0 {
		return nil, app_errors.NewValidationError("data", "is required")
	}
	res, err := t.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, app_errors.NewValidationError("data", "is not valid JSON")
	}
	if !res.Valid() {
		verr := &app_errors.ValidationError{}
		for _, e := range res.Errors() {
			field := "data"
			if e.Field() != "(root)" {
				field = "data." + e.Field()
			}
			verr.Add(field, e.Description())
		}
		return nil, verr
	}
	p := t.empty()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, app_errors.NewValidationError("data", err.Error())
	}
	if c, ok := p.(checker); ok {
		if verr := c.check(); verr != nil {
			return nil, verr
		}
	}
	return p, nil
}

func unknownType(typ string) error {
	return app_errors.NewValidationError("type", fmt.Sprintf("unknown block type %q", typ))
}

type View struct {
	ID       uuid.UUID       `json:"id"`
	Type     string          `json:"type"`
	Position int             `json:"position"`
	Version  int             `json:"version,omitempty"`
	Mode     Mode            `json:"mode"`
	Content  any             `json:"content,omitempty"`
	Fields   []Field         `json:"fields,omitempty"`
	Gradable bool            `json:"gradable,omitempty"`
	Fallback bool            `json:"fallback,omitempty"`
	Notice   string          `json:"notice,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Render never fails: unknown types and payloads that do not match their
// schema come back as a fallback view.
func Render(b models.Block, mode Mode) View {
	v := View{ID: b.ID, Type: b.Type, Position: b.Position, Mode: mode}
	if mode == ModeAuthor {
		v.Version = b.Version
	}

	p, err := decode(b.Type, b.Data)
	if err != nil {
		v.Fallback = true
		if !Known(b.Type) {
			v.Notice = fmt.Sprintf("unsupported block type %q", b.Type)
		} else {
			v.Notice = "block content could not be displayed: " + err.Error()
		}
		if mode == ModeAuthor && json.Valid(b.Data) {
			v.Raw = b.Data
		}
		return v
	}

	_, v.Gradable = p.(grader)
	switch mode {
	case ModeAuthor:
		v.Content = p
		v.Fields = p.fields()
	default:
		v.Content = p.studentView(seedFor(b.ID))
	}
	return v
}

// Extract projects a payload onto the plain text sent to the text
// generation service.
func Extract(typ string, data json.RawMessage) (string, error) {
	p, err := decode(typ, data)
	if err != nil {
		return "", err
	}
	return p.text(), nil
}

// ExtractPublic is Extract without answer keys: no correct marks, blank
// answers, pairings, item order or grading criteria.
func ExtractPublic(typ string, data json.RawMessage) (string, error) {
	p, err := decode(typ, data)
	if err != nil {
		return "", err
	}
	if pt, ok := p.(publicTexter); ok {
		return pt.publicText(), nil
	}
	return p.text(), nil
}

// Apply parses generated text back into the payload shape of typ. Fields the
// text does not mention, or that would make the payload invalid, keep the
// values from data.
func Apply(typ string, data json.RawMessage, text string) (json.RawMessage, error) {
	p, err := decode(typ, data)
	if err != nil {
		return nil, err
	}
	p.parseText(text)
	out, err := json.Marshal(p)
	if err != nil {
		return data, nil
	}
	if err := Validate(typ, out); err != nil {
		return data, nil
	}
	return out, nil
}

// GradeAnswer scores answer against data. It returns nil when typ is not
// auto-gradable.
func GradeAnswer(typ string, data, answer json.RawMessage) (*Grade, error) {
	p, err := decode(typ, data)
	if err != nil {
		return nil, err
	}
	g, ok := p.(grader)
	if !ok {
		return nil, nil
	}
	return g.grade(answer)
}

func Gradable(typ string) bool {
	t, ok := registry[typ]
	if !ok {
		return false
	}
	_, ok = t.empty().(grader)
	return ok
}

func seedFor(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}
