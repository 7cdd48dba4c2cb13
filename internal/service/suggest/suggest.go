// Package suggest asks the text generation service for edits to assignment
// blocks. Suggestions are returned to the editor and never stored.
package suggest

import (
	"EduForge/internal/ai"
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Scope string

const (
	ScopeBlock      Scope = "block"
	ScopePage       Scope = "page"
	ScopeAssignment Scope = "assignment"
)

const (
	maxInstructionLen = 2000
	parallelBlocks    = 4
)

type blockRepo interface {
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
}

type authorizer interface {
	AuthorizePath(ctx context.Context, userID uuid.UUID, p access.Path, op access.Op) (*access.Decision, error)
}

type SuggestService struct {
	log       logger.Log
	blocks    blockRepo
	access    authorizer
	completer ai.Completer
	prompts   *ai.Prompts
}

func NewSuggestService(log logger.Log, blocks blockRepo, access authorizer, completer ai.Completer, prompts *ai.Prompts) *SuggestService {
	return &SuggestService{log: log, blocks: blocks, access: access, completer: completer, prompts: prompts}
}

type Request struct {
	Scope       Scope
	BlockID     uuid.UUID
	Instruction string
}

// Suggestion is a proposed payload for one block. Version is the block
// version the suggestion was made against, to be sent back on save.
type Suggestion struct {
	BlockID uuid.UUID       `json:"block_id"`
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
	Changed bool            `json:"changed"`
}

type Result struct {
	Scope  Scope        `json:"scope"`
	Title  string       `json:"title,omitempty"`
	Blocks []Suggestion `json:"blocks"`
}

func (s *SuggestService) Suggest(ctx context.Context, userID uuid.UUID, p access.Path, req Request) (*Result, error) {
	req.Instruction = strings.TrimSpace(req.Instruction)
	if req.Instruction == "" {
		return nil, app_errors.NewValidationError("instruction", "is required")
	}
	if len(req.Instruction) > maxInstructionLen {
		return nil, app_errors.NewValidationError("instruction", fmt.Sprintf("must be at most %d characters", maxInstructionLen))
	}
	if req.Scope == "" {
		req.Scope = ScopeBlock
	}

	switch req.Scope {
	case ScopeBlock:
		if req.BlockID == uuid.Nil {
			return nil, app_errors.NewValidationError("block_id", "is required for block scope")
		}
		p.BlockID = req.BlockID
		d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
		if err != nil {
			return nil, err
		}
		sug, err := s.suggestBlock(ctx, *d.Block, req.Instruction)
		if err != nil {
			return nil, err
		}
		return &Result{Scope: ScopeBlock, Blocks: []Suggestion{*sug}}, nil
	case ScopePage, ScopeAssignment:
		d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
		if err != nil {
			return nil, err
		}
		list, err := s.blocks.BlocksByAssignment(ctx, d.Assignment.ID)
		if err != nil {
			return nil, err
		}
		if req.Scope == ScopePage {
			return s.suggestPage(ctx, list, req.Instruction)
		}
		return s.suggestAssignment(ctx, d.Assignment.Title, list, req.Instruction)
	default:
		return nil, app_errors.NewValidationError("scope", "must be block, page or assignment")
	}
}

func (s *SuggestService) complete(ctx context.Context, instruction, content string) (string, error) {
	system, user, err := s.prompts.Render(ai.TaskSuggest, ai.PromptData{Instruction: instruction, Content: content})
	if err != nil {
		return "", err
	}
	return s.completer.Complete(ctx, system, user)
}

func (s *SuggestService) suggestBlock(ctx context.Context, b models.Block, instruction string) (*Suggestion, error) {
	text, err := blocks.Extract(b.Type, b.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return unchanged(b), nil
	}
	out, err := s.complete(ctx, instruction, text)
	if err != nil {
		return nil, err
	}
	return apply(b, out)
}

// suggestPage sends every block with text in one prompt, each section
// opened by a block marker, and maps the reply back by marker number.
func (s *SuggestService) suggestPage(ctx context.Context, list []models.Block, instruction string) (*Result, error) {
	res := &Result{Scope: ScopePage, Blocks: make([]Suggestion, 0, len(list))}
	var content strings.Builder
	sent := 0
	for i, b := range list {
		text, err := blocks.Extract(b.Type, b.Data)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if sent > 0 {
			content.WriteString("\n")
		}
		content.WriteString(marker(i + 1))
		content.WriteString("\n")
		content.WriteString(text)
		sent++
	}
	if sent == 0 {
		for _, b := range list {
			res.Blocks = append(res.Blocks, *unchanged(b))
		}
		return res, nil
	}

	out, err := s.complete(ctx, instruction, content.String())
	if err != nil {
		return nil, err
	}
	sections := splitSections(out)
	for i, b := range list {
		text, ok := sections[i+1]
		if !ok {
			res.Blocks = append(res.Blocks, *unchanged(b))
			continue
		}
		sug, err := apply(b, text)
		if err != nil {
			res.Blocks = append(res.Blocks, *unchanged(b))
			continue
		}
		res.Blocks = append(res.Blocks, *sug)
	}
	return res, nil
}

// suggestAssignment suggests the title and every block with separate
// requests, a few at a time. Blocks that cannot be decoded, or whose reply
// does not fit the block, come back unchanged.
func (s *SuggestService) suggestAssignment(ctx context.Context, title string, list []models.Block, instruction string) (*Result, error) {
	res := &Result{Scope: ScopeAssignment, Blocks: make([]Suggestion, len(list))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelBlocks)
	g.Go(func() error {
		out, err := s.complete(gctx, instruction, "Title: "+title)
		if err != nil {
			return err
		}
		res.Title = suggestedTitle(out, title)
		return nil
	})
	for i, b := range list {
		g.Go(func() error {
			res.Blocks[i] = *unchanged(b)
			text, err := blocks.Extract(b.Type, b.Data)
			if err != nil {
				s.log.Warn("skipping undecodable block", "block_id", b.ID.String(), "error", err.Error())
				return nil
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}
			out, err := s.complete(gctx, instruction, text)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			if sug, err := apply(b, out); err == nil {
				res.Blocks[i] = *sug
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func suggestedTitle(out, fallback string) string {
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "Title:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return fallback
}

func apply(b models.Block, text string) (*Suggestion, error) {
	data, err := blocks.Apply(b.Type, b.Data, text)
	if err != nil {
		return nil, err
	}
	return &Suggestion{
		BlockID: b.ID,
		Type:    b.Type,
		Version: b.Version,
		Data:    data,
		Changed: !sameJSON(b.Data, data),
	}, nil
}

func unchanged(b models.Block) *Suggestion {
	return &Suggestion{BlockID: b.ID, Type: b.Type, Version: b.Version, Data: b.Data}
}

func sameJSON(a, b json.RawMessage) bool {
	var x, y any
	if json.Unmarshal(a, &x) != nil || json.Unmarshal(b, &y) != nil {
		return false
	}
	return reflect.DeepEqual(x, y)
}

const markerPrefix, markerSuffix = "<<<BLOCK ", ">>>"

func marker(n int) string {
	return markerPrefix + strconv.Itoa(n) + markerSuffix
}

// splitSections maps marker numbers to the text that follows each marker.
func splitSections(out string) map[int]string {
	sections := map[int]string{}
	current := -1
	var buf []string
	flush := func() {
		if current >= 0 {
			sections[current] = strings.Trim(strings.Join(buf, "\n"), "\n")
		}
		buf = buf[:0]
	}
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, markerPrefix) && strings.HasSuffix(trimmed, markerSuffix) {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(trimmed, markerPrefix), markerSuffix))
			if err == nil {
				flush()
				current = n
				continue
			}
		}
		if current >= 0 {
			buf = append(buf, line)
		}
	}
	flush()
	return sections
}
