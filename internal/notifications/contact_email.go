package notifications

import (
	"context"
	"fmt"
	"html/template"

	"ladla-backend/internal/contact"
)

const contactAlertTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Nouveau message recu via le formulaire de contact.</p>
  <ul>
    <li>Nom : {{.Nom}}</li>
    <li>Email : {{.Email}}</li>
    {{- if .Telephone}}
    <li>Telephone : {{.Telephone}}</li>
    {{- end}}
    <li>Sujet : {{.Sujet}}</li>
    <li>Recu le : {{.Recu}}</li>
  </ul>
  <p style="white-space: pre-line">{{.Message}}</p>
</body>
</html>`

var contactAlertTmpl = template.Must(template.New("contact_alert").Parse(contactAlertTemplate))

type contactAlertData struct {
	Nom       string
	Email     string
	Telephone string
	Sujet     string
	Message   string
	Recu      string
}

// SendContactAlert forwards a contact form message to the shop. Replies go
// straight to the sender.
func (c *BrevoClient) SendContactAlert(ctx context.Context, m contact.Message) (string, error) {
	if c == nil {
		return "", fmt.Errorf("brevo client is nil")
	}
	if c.adminEmail == "" {
		return "", ErrNoAdminEmail
	}
	sujet := m.Sujet
	if sujet == "" {
		sujet = "Sans sujet"
	}
	body, err := render(contactAlertTmpl, contactAlertData{
		Nom:       m.Nom,
		Email:     m.Email,
		Telephone: m.Telephone,
		Sujet:     sujet,
		Message:   m.Message,
		Recu:      m.CreatedAt.Format("02/01/2006 15:04"),
	})
	if err != nil {
		return "", err
	}
	return c.send(ctx, email{
		toEmail: c.adminEmail,
		toName:  c.senderName,
		replyTo: m.Email,
		subject: fmt.Sprintf("Contact : %s (%s)", sujet, m.Nom),
		html:    body,
	})
}
