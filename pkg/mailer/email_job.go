package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template is one of "welcome" or "login_notification"; Data feeds the
// template. Subject/Text/HTML override rendering when set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
