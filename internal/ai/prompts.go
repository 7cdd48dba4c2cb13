package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// PromptData fills the prompt templates. Unused fields are ignored.
type PromptData struct {
	Title       string
	Instruction string
	Content     string
	Criteria    string
	MaxScore    float64
	Count       int
}

type promptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiledPrompt struct {
	system *template.Template
	user   *template.Template
}

type Prompts struct {
	tasks map[Task]compiledPrompt
}

func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

func ParsePrompts(raw []byte) (*Prompts, error) {
	var pairs map[Task]promptPair
	if err := yaml.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	p := &Prompts{tasks: make(map[Task]compiledPrompt, len(pairs))}
	for task, pair := range pairs {
		sys, err := template.New(string(task) + ".system").Option("missingkey=error").Parse(pair.System)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", task, err)
		}
		usr, err := template.New(string(task) + ".user").Option("missingkey=error").Parse(pair.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", task, err)
		}
		p.tasks[task] = compiledPrompt{system: sys, user: usr}
	}
	return p, nil
}

// Render returns the system and user prompts for task.
func (p *Prompts) Render(task Task, data PromptData) (string, string, error) {
	t, ok := p.tasks[task]
	if !ok {
		return "", "", fmt.Errorf("no prompt for task %q", task)
	}
	var sys, usr bytes.Buffer
	if err := t.system.Execute(&sys, data); err != nil {
		return "", "", fmt.Errorf("render %s system prompt: %w", task, err)
	}
	if err := t.user.Execute(&usr, data); err != nil {
		return "", "", fmt.Errorf("render %s user prompt: %w", task, err)
	}
	return sys.String(), usr.String(), nil
}
