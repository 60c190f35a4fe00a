package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	if host == "" || port == "" || user == "" || pass == "" || from == "" {
		return fmt.Errorf("SMTP environment variables missing")
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", user, pass, host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

func SendWelcome(to string) error {
	subject := "Welcome to FamHealth"
	body := "Thanks for signing up. Add your family members and upload their lab reports to get started."
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] welcome sent to %s", to)
	return nil
}

func SendPasswordChanged(to string) error {
	subject := "Password updated"
	body := "Your password has been changed. If this wasn't you, please contact support."
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] password change notification sent to %s", to)
	return nil
}

// SendUpgradeSuggestion promotes the paid plans when a quota limit is hit.
func SendUpgradeSuggestion(to string) error {
	subject := "Upgrade your FamHealth plan"
	body := "You have reached the limits of your current plan. Upgrade to keep uploading reports and asking questions."
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] upgrade suggestion sent to %s", to)
	return nil
}
