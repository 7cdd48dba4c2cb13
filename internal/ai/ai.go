// Package ai reaches the text generation backend through a single
// Complete(system, user) call. Providers are interchangeable: the HTTP
// provider talks to any OpenAI-compatible API and Mock produces
// deterministic output for offline use.
package ai

import (
	"EduForge/internal/app_errors"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

const ServiceName = "ai"

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Task names the prompt pair used for a request. The system prompt of
// every task starts with a "task: <name>" line.
type Task string

const (
	TaskSuggest    Task = "suggest"
	TaskGrade      Task = "grade"
	TaskSummary    Task = "summary"
	TaskQuiz       Task = "quiz"
	TaskFlashcards Task = "flashcards"
	TaskNotes      Task = "notes"
	TaskMindmap    Task = "mindmap"
)

// Fallback answers from secondary whenever primary fails.
type Fallback struct {
	primary   Completer
	secondary Completer
	log       logger.Log
}

func NewFallback(log logger.Log, primary, secondary Completer) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := f.primary.Complete(ctx, system, user)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	f.log.ErrorErr("ai provider failed, using fallback", err, "task", taskOf(system))
	return f.secondary.Complete(ctx, system, user)
}

func taskOf(system string) Task {
	line, _, _ := strings.Cut(strings.TrimSpace(system), "\n")
	name, ok := strings.CutPrefix(strings.TrimSpace(line), "task:")
	if !ok {
		return ""
	}
	return Task(strings.TrimSpace(name))
}

// IsRetryable reports whether err came from a provider failure worth
// retrying by the caller.
func IsRetryable(err error) bool {
	var ext *app_errors.ExternalError
	return errors.As(err, &ext) && ext.Retryable
}

// ExtractJSON returns the outermost JSON object in s. Models often wrap
// their answer in prose or code fences.
func ExtractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	out := s[start : end+1]
	if !json.Valid([]byte(out)) {
		return "", false
	}
	return out, true
}
