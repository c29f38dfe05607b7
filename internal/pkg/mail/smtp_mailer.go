package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/env"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationReceipt mails a subscription confirmation. Failures are the
// caller's to log; activation never depends on the mail going out.
func SendActivationReceipt(to, planDisplayName string, tx *models.PaymentTransaction) error {
	if to == "" {
		return fmt.Errorf("recipient is empty")
	}
	subject := "Tu suscripción está activa"
	body := fmt.Sprintf(
		"<h2>¡Bienvenido!</h2>"+
			"<p>Tu suscripción al <strong>%s</strong> quedó activa.</p>"+
			"<p>Referencia de pago: %s<br>Monto: %s</p>"+
			"<p>¡A estudiar!</p>",
		planDisplayName,
		tx.ReferenceCode,
		pricing.FormatAmount(tx.Amount, tx.Currency),
	)
	return SendMail(to, subject, body)
}
