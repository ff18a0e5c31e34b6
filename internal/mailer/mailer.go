package mailer

import "embed"

const (
	FromName                 = "critiq"
	maxRetries               = 3
	ConfirmationCodeTemplate = "confirmation_code.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
