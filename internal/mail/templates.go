package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

var subjects = map[Kind]string{
	KindConfirmation:  "CashTrackr - Account Confirmation",
	KindPasswordReset: "CashTrackr - Password Reset",
}

var templateFiles = map[Kind]string{
	KindConfirmation:  "confirmation.html",
	KindPasswordReset: "password_reset.html",
}

// Renderer turns a queued message into a subject and HTML body.
type Renderer struct {
	templates   *template.Template
	frontendURL string
}

func NewRenderer(frontendURL string) (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: t, frontendURL: frontendURL}, nil
}

// Render returns the subject and body for a message, or an error for
// unknown kinds so the worker can drop the delivery.
func (r *Renderer) Render(msg *Message) (subject, body string, err error) {
	subject, ok := subjects[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown mail kind %q", msg.Kind)
	}

	data := struct {
		Name        string
		Token       string
		FrontendURL string
	}{Name: msg.Name, Token: msg.Token, FrontendURL: r.frontendURL}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, templateFiles[msg.Kind], data); err != nil {
		return "", "", fmt.Errorf("render %s template: %w", msg.Kind, err)
	}
	return subject, buf.String(), nil
}
