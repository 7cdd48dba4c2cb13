package blocks

import (
	"EduForge/internal/app_errors"
	"encoding/json"
	"strings"
)

type Text struct {
	Content string `json:"content"`
	Style   string `json:"style"`
}

func (t *Text) fields() []Field {
	return []Field{
		{Name: "content", Kind: "textarea"},
		{Name: "style", Kind: "select", Options: []string{"normal", "heading", "subheading", "quote", "note", "warning"}},
	}
}

func (t *Text) studentView(int64) any { return *t }

func (t *Text) text() string { return t.Content }

func (t *Text) parseText(s string) {
	if s = strings.TrimSpace(s); s != "" {
		t.Content = s
	}
}

type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// Image.URL is either an absolute URL or a media:// reference to an
// uploaded object.
type Image struct {
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	Transform Transform `json:"transform"`
}

func (i *Image) fields() []Field {
	return []Field{
		{Name: "url", Kind: "media"},
		{Name: "caption", Kind: "text"},
		{Name: "transform", Kind: "transform"},
	}
}

func (i *Image) studentView(int64) any { return *i }

func (i *Image) text() string {
	if i.Caption == "" {
		return ""
	}
	return "Caption: " + i.Caption
}

func (i *Image) parseText(s string) {
	values, _ := scanLabeled(s)
	if c, ok := values["caption"]; ok {
		i.Caption = c
	}
}

type Video struct {
	URL          string `json:"url"`
	Provider     string `json:"provider"`
	StartSeconds int    `json:"start_seconds"`
	EndSeconds   *int   `json:"end_seconds"`
}

func (v *Video) fields() []Field {
	return []Field{
		{Name: "url", Kind: "media"},
		{Name: "provider", Kind: "select", Options: []string{"youtube", "vimeo", "upload"}},
		{Name: "start_seconds", Kind: "number"},
		{Name: "end_seconds", Kind: "number"},
	}
}

func (v *Video) studentView(int64) any { return *v }

func (v *Video) text() string { return "" }

func (v *Video) parseText(string) {}

type MediaEmbed struct {
	EmbedURL    string `json:"embed_url"`
	Description string `json:"description"`
}

func (m *MediaEmbed) fields() []Field {
	return []Field{
		{Name: "embed_url", Kind: "text"},
		{Name: "description", Kind: "textarea"},
	}
}

func (m *MediaEmbed) studentView(int64) any { return *m }

func (m *MediaEmbed) text() string { return m.Description }

func (m *MediaEmbed) parseText(s string) {
	if s = strings.TrimSpace(s); s != "" {
		m.Description = s
	}
}

type Divider struct {
	Style string `json:"style"`
}

func (d *Divider) fields() []Field {
	return []Field{{Name: "style", Kind: "select", Options: []string{"line", "space", "page_break"}}}
}

func (d *Divider) studentView(int64) any { return *d }

func (d *Divider) text() string { return "" }

func (d *Divider) parseText(string) {}

// MediaURL returns the url of an image or video payload. ok is false for
// every other type or when data does not decode.
func MediaURL(typ string, data json.RawMessage) (url string, ok bool) {
	p, err := decode(typ, data)
	if err != nil {
		return "", false
	}
	switch m := p.(type) {
	case *Image:
		return m.URL, true
	case *Video:
		return m.URL, true
	}
	return "", false
}

// WithMediaURL returns data with its url replaced. Uploaded videos switch
// their provider to "upload".
func WithMediaURL(typ string, data json.RawMessage, url string) (json.RawMessage, error) {
	p, err := decode(typ, data)
	if err != nil {
		return nil, err
	}
	switch m := p.(type) {
	case *Image:
		m.URL = url
	case *Video:
		m.URL = url
		if strings.HasPrefix(url, "media://") {
			m.Provider = "upload"
		}
	default:
		return nil, app_errors.ErrNotMedia
	}
	return json.Marshal(p)
}
