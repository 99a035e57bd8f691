package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"ladla-backend/internal/reservations"
	"ladla-backend/internal/schedule"
)

const reservationConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Bonjour {{.Prenom}},</p>
  <p>Nous avons bien recu votre demande de rendez-vous. Voici le recapitulatif :</p>
  <ul>
    <li>Formule : {{.Formule}}</li>
    <li>Vehicule : {{.Vehicule}}</li>
    <li>Date : {{.Date}}</li>
    <li>Heure : {{.Heure}}</li>
    <li>Adresse : {{.Adresse}}</li>
  </ul>
  {{- if .Options}}
  <p>Options :</p>
  <ul>
    {{- range .Options}}
    <li>{{.}}</li>
    {{- end}}
  </ul>
  {{- end}}
  <p>Prix estime : {{.Prix}}</p>
  <p>Votre rendez-vous sera confirme par notre equipe dans les plus brefs delais.</p>
  <p>Numero de reservation : {{.ID}}</p>
  <p>Merci de votre confiance.</p>
</body>
</html>`

const reservationAlertTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Nouvelle reservation recue.</p>
  <ul>
    <li>Client : {{.Prenom}} {{.Nom}}</li>
    <li>Email : {{.Email}}</li>
    <li>Telephone : {{.Telephone}}</li>
    <li>Adresse : {{.Adresse}}</li>
    <li>Vehicule : {{.Vehicule}}</li>
    <li>Formule : {{.Formule}}</li>
    <li>Date : {{.Date}} a {{.Heure}}</li>
    <li>Prix : {{.Prix}}</li>
  </ul>
  {{- if .Options}}
  <p>Options :</p>
  <ul>
    {{- range .Options}}
    <li>{{.}}</li>
    {{- end}}
  </ul>
  {{- end}}
  {{- if .Commentaires}}
  <p>Commentaires : {{.Commentaires}}</p>
  {{- end}}
  <p>Reference : {{.ID}}</p>
</body>
</html>`

var (
	reservationConfirmationTmpl = template.Must(template.New("reservation_confirmation").Parse(reservationConfirmationTemplate))
	reservationAlertTmpl        = template.Must(template.New("reservation_alert").Parse(reservationAlertTemplate))
)

type reservationEmailData struct {
	ID           string
	Prenom       string
	Nom          string
	Email        string
	Telephone    string
	Adresse      string
	Vehicule     string
	Formule      string
	Date         string
	Heure        string
	Prix         string
	Options      []string
	Commentaires string
}

// SendReservationConfirmation mails the customer a summary of the booking.
func (c *BrevoClient) SendReservationConfirmation(ctx context.Context, r reservations.Reservation) (string, error) {
	body, err := render(reservationConfirmationTmpl, newReservationEmailData(r))
	if err != nil {
		return "", err
	}
	return c.send(ctx, email{
		toEmail: r.Email,
		toName:  fullName(r.Prenom, r.Nom),
		subject: fmt.Sprintf("Votre rendez-vous du %s - %s", frenchDate(r.DateRdv), r.Formule),
		html:    body,
	})
}

// SendReservationAlert tells the shop about a new booking.
func (c *BrevoClient) SendReservationAlert(ctx context.Context, r reservations.Reservation) (string, error) {
	if c == nil {
		return "", fmt.Errorf("brevo client is nil")
	}
	if c.adminEmail == "" {
		return "", ErrNoAdminEmail
	}
	body, err := render(reservationAlertTmpl, newReservationEmailData(r))
	if err != nil {
		return "", err
	}
	return c.send(ctx, email{
		toEmail: c.adminEmail,
		toName:  c.senderName,
		replyTo: r.Email,
		subject: fmt.Sprintf("Nouvelle reservation : %s le %s a %s", fullName(r.Prenom, r.Nom), frenchDate(r.DateRdv), r.HeureRdv),
		html:    body,
	})
}

func newReservationEmailData(r reservations.Reservation) reservationEmailData {
	return reservationEmailData{
		ID:           r.ID,
		Prenom:       r.Prenom,
		Nom:          r.Nom,
		Email:        r.Email,
		Telephone:    r.Telephone,
		Adresse:      r.Adresse,
		Vehicule:     vehicleLabel(r),
		Formule:      r.Formule,
		Date:         frenchDate(r.DateRdv),
		Heure:        r.HeureRdv,
		Prix:         euros(r.Prix),
		Options:      r.OptionsSummary,
		Commentaires: r.Commentaires,
	}
}

func vehicleLabel(r reservations.Reservation) string {
	if r.MarqueVoiture == "" {
		return r.VehicleType()
	}
	return r.VehicleType() + " (" + r.MarqueVoiture + ")"
}

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "fevrier", "mars", "avril", "mai", "juin", "juillet", "aout", "septembre", "octobre", "novembre", "decembre"}

// frenchDate renders 2025-03-05 as "mercredi 5 mars 2025".
func frenchDate(date string) string {
	t, err := schedule.ParseDate(date, time.UTC)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
}

func euros(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
