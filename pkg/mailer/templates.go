package mailer

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
)

const (
	TemplateWelcome           = "welcome"
	TemplateLoginNotification = "login_notification"
)

var templates = map[string]struct {
	subject string
	text    *texttpl.Template
	html    *htmltpl.Template
}{
	TemplateWelcome: {
		subject: "Welcome aboard",
		text: texttpl.Must(texttpl.New("welcome_text").Parse(
			"Hi {{.Name}},\n\nYour account {{.Email}} is ready. Sign in any time to pick up where you left off.\n")),
		html: htmltpl.Must(htmltpl.New("welcome_html").Parse(
			`<p>Hi {{.Name}},</p><p>Your account <strong>{{.Email}}</strong> is ready. Sign in any time to pick up where you left off.</p>`)),
	},
	TemplateLoginNotification: {
		subject: "New login to your account",
		text: texttpl.Must(texttpl.New("login_text").Parse(
			"A new login to {{.Email}} just happened. If this was not you, reset your password.\n")),
		html: htmltpl.Must(htmltpl.New("login_html").Parse(
			`<p>A new login to <strong>{{.Email}}</strong> just happened.</p><p>If this was not you, reset your password.</p>`)),
	},
}

// Render produces subject, text and html bodies for a template name.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var tb, hb bytes.Buffer
	if err := t.text.Execute(&tb, data); err != nil {
		return "", "", "", err
	}
	if err := t.html.Execute(&hb, data); err != nil {
		return "", "", "", err
	}
	return t.subject, tb.String(), hb.String(), nil
}
