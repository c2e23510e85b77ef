package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/loan-reminders/internal/config"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger logrus.FieldLogger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger logrus.FieldLogger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendReminderDigest emails the user the reminders that are still unpaid.
// Nothing is sent when every reminder is paid.
func (s *Sender) SendReminderDigest(user models.User, reminders []models.ReminderView) error {
	var unpaid []models.ReminderView
	for _, r := range reminders {
		if !r.Paid {
			unpaid = append(unpaid, r)
		}
	}
	if len(unpaid) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{user.Email}
	e.Subject = digestSubject(unpaid)
	e.Text = []byte(digestBody(user.Username, unpaid))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", user.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", user.Email, e.Subject)
	return nil
}

func digestSubject(reminders []models.ReminderView) string {
	for _, r := range reminders {
		if r.DaysUntilDue == 0 {
			return "Payment due today"
		}
	}
	if len(reminders) == 1 {
		return "Upcoming payment reminder"
	}
	return fmt.Sprintf("%d upcoming payment reminders", len(reminders))
}

func digestBody(username string, reminders []models.ReminderView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", username)
	b.WriteString("The following payments are coming up:\n\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "- %s: %s due on %s (%s)\n",
			r.Title, r.Amount.StringFixed(2), r.DueDate.Format("2006-01-02"), dueIn(r.DaysUntilDue))
	}
	b.WriteString("\nPlease ensure sufficient funds are available in your account.\n")
	b.WriteString("\nBest regards,\nLoan Reminders")
	return b.String()
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
