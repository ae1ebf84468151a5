package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// The publisher renders the templates, so the worker only delivers.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

func (j EmailJob) Valid() bool {
	return j.To != "" && j.Subject != "" && (j.Text != "" || j.HTML != "")
}
