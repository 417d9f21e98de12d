package notify

import (
	"bytes"
	"errors"
	"text/template"
)

// DefaultTitleTemplate renders notification titles.
const DefaultTitleTemplate = `Aquarium {{.EventLabel}}: {{.Sensor}}`

// DefaultBodyTemplate renders notification bodies.
const DefaultBodyTemplate = `{{.Message}}
Sensor: {{.Sensor}}
Value: {{.Value}}
Time: {{.Time}}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	Sensor     string
	Value      string
	Message    string
	Time       string
	Event      string
	EventLabel string
}

// Template renders notification titles and bodies.
type Template struct {
	title *template.Template
	body  *template.Template
}

// NewTemplate parses the title and body templates, falling back to the
// defaults when empty.
func NewTemplate(titleTpl, bodyTpl string) (*Template, error) {
	if titleTpl == "" {
		titleTpl = DefaultTitleTemplate
	}
	if bodyTpl == "" {
		bodyTpl = DefaultBodyTemplate
	}
	title, err := template.New("alert-title").Parse(titleTpl)
	if err != nil {
		return nil, err
	}
	body, err := template.New("alert-body").Parse(bodyTpl)
	if err != nil {
		return nil, err
	}
	return &Template{title: title, body: body}, nil
}

// Render applies the templates to data.
func (t *Template) Render(data TemplateData) (title, body string, err error) {
	if t == nil || t.title == nil || t.body == nil {
		return "", "", errors.New("alert template: nil")
	}
	var titleBuf bytes.Buffer
	if err := t.title.Execute(&titleBuf, data); err != nil {
		return "", "", err
	}
	var bodyBuf bytes.Buffer
	if err := t.body.Execute(&bodyBuf, data); err != nil {
		return "", "", err
	}
	return titleBuf.String(), bodyBuf.String(), nil
}
