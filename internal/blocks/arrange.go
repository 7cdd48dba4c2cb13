package blocks

import (
	"EduForge/internal/app_errors"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type DragDrop struct {
	Prompt string `json:"prompt"`
	Pairs  []Pair `json:"pairs"`
}

// DragDropView hides the pairing by shuffling the right-hand side.
type DragDropView struct {
	Prompt string   `json:"prompt"`
	Left   []string `json:"left"`
	Right  []string `json:"right"`
}

func (d *DragDrop) fields() []Field {
	return []Field{
		{Name: "prompt", Kind: "textarea"},
		{Name: "pairs", Kind: "pairs"},
	}
}

func (d *DragDrop) studentView(seed int64) any {
	v := DragDropView{Prompt: d.Prompt, Left: make([]string, len(d.Pairs)), Right: make([]string, len(d.Pairs))}
	for i, p := range d.Pairs {
		v.Left[i] = p.Left
	}
	for i, j := range permutation(len(d.Pairs), seed) {
		v.Right[i] = d.Pairs[j].Right
	}
	return v
}

func (d *DragDrop) text() string {
	var b strings.Builder
	b.WriteString("Prompt: " + d.Prompt + "\nPairs:\n")
	for _, p := range d.Pairs {
		b.WriteString("- " + p.Left + " => " + p.Right + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// publicText lists both sides sorted on their own, so pairs are not shown.
func (d *DragDrop) publicText() string {
	left := make([]string, len(d.Pairs))
	right := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		left[i], right[i] = p.Left, p.Right
	}
	slices.Sort(left)
	slices.Sort(right)
	return "Prompt: " + d.Prompt + "\nLeft: " + strings.Join(left, " | ") + "\nRight: " + strings.Join(right, " | ")
}

func (d *DragDrop) parseText(s string) {
	values, lists := scanLabeled(s)
	if p, ok := values["prompt"]; ok {
		d.Prompt = p
	}
	var pairs []Pair
	for _, item := range lists["pairs"] {
		left, right, ok := strings.Cut(item, "=>")
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Left: strings.TrimSpace(left), Right: strings.TrimSpace(right)})
	}
	if len(pairs) > 0 {
		d.Pairs = pairs
	}
}

type pairsAnswer struct {
	Pairs []Pair `json:"pairs"`
}

func (d *DragDrop) grade(answer json.RawMessage) (*Grade, error) {
	var a pairsAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return nil, app_errors.NewValidationError("answer", "expected {\"pairs\": [{left, right}]}")
	}
	want := make(map[string]string, len(d.Pairs))
	for _, p := range d.Pairs {
		want[p.Left] = p.Right
	}
	g := &Grade{MaxScore: float64(len(d.Pairs))}
	matched := make(map[string]bool, len(a.Pairs))
	for _, p := range a.Pairs {
		if r, ok := want[p.Left]; ok && r == p.Right && !matched[p.Left] {
			matched[p.Left] = true
			g.Score++
		}
	}
	g.Correct = g.Score == g.MaxScore
	return g, nil
}

// Ordering.CorrectOrder lists indexes into Items in the expected sequence.
type Ordering struct {
	Prompt       string   `json:"prompt"`
	Items        []string `json:"items"`
	CorrectOrder []int    `json:"correct_order"`
}

type OrderingItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type OrderingView struct {
	Prompt string         `json:"prompt"`
	Items  []OrderingItem `json:"items"`
}

func (o *Ordering) check() *app_errors.ValidationError {
	if len(o.CorrectOrder) != len(o.Items) {
		return app_errors.NewValidationError("data.correct_order", "must list every item exactly once")
	}
	seen := make([]bool, len(o.Items))
	for i, idx := range o.CorrectOrder {
		if idx < 0 || idx >= len(o.Items) || seen[idx] {
			return app_errors.NewValidationError(fmt.Sprintf("data.correct_order.%d", i), "must be a permutation of item indexes")
		}
		seen[idx] = true
	}
	return nil
}

func (o *Ordering) fields() []Field {
	return []Field{
		{Name: "prompt", Kind: "textarea"},
		{Name: "items", Kind: "list"},
		{Name: "correct_order", Kind: "order"},
	}
}

func (o *Ordering) studentView(seed int64) any {
	v := OrderingView{Prompt: o.Prompt, Items: make([]OrderingItem, len(o.Items))}
	for i, j := range permutation(len(o.Items), seed) {
		v.Items[i] = OrderingItem{Index: j, Text: o.Items[j]}
	}
	return v
}

// text lists the items already in their correct order.
func (o *Ordering) text() string {
	var b strings.Builder
	b.WriteString("Prompt: " + o.Prompt + "\nItems:\n")
	for n, idx := range o.CorrectOrder {
		b.WriteString(strconv.Itoa(n+1) + ". " + o.Items[idx] + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (o *Ordering) publicText() string {
	items := slices.Clone(o.Items)
	slices.Sort(items)
	return "Prompt: " + o.Prompt + "\nItems: " + strings.Join(items, " | ")
}

func (o *Ordering) parseText(s string) {
	values, lists := scanLabeled(s)
	if p, ok := values["prompt"]; ok {
		o.Prompt = p
	}
	items := lists["items"]
	if len(items) == 0 {
		return
	}
	o.Items = items
	o.CorrectOrder = make([]int, len(items))
	for i := range items {
		o.CorrectOrder[i] = i
	}
}

type orderAnswer struct {
	Order []int `json:"order"`
}

func (o *Ordering) grade(answer json.RawMessage) (*Grade, error) {
	var a orderAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return nil, app_errors.NewValidationError("answer", "expected {\"order\": [item indexes]}")
	}
	g := &Grade{MaxScore: float64(len(o.CorrectOrder))}
	for i, want := range o.CorrectOrder {
		if i < len(a.Order) && a.Order[i] == want {
			g.Score++
		}
	}
	g.Correct = g.Score == g.MaxScore && len(a.Order) == len(o.CorrectOrder)
	return g, nil
}
