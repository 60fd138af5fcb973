package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
	now    func() time.Time
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
		now: time.Now,
	}
}

// SendLeadNotification notifies the brokerage desk of a new lead
func (s *Sender) SendLeadNotification(lead *models.Lead) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("Mortgage Simulator Leads <%s>", s.cfg.SenderEmail)
	e.To = []string{s.cfg.NotifyEmail}
	e.ReplyTo = []string{lead.Email}
	e.Subject = fmt.Sprintf("[Lead] New prospect - %s", mortgage.FormatEuros(lead.LoanAmount))
	e.Text = []byte(leadBody(lead, s.now()))

	return s.deliver(e, logrus.Fields{
		"lead_id":     lead.ID,
		"email":       lead.Email,
		"loan_amount": lead.LoanAmount,
	})
}

// SendContactMessage forwards a contact form submission
func (s *Sender) SendContactMessage(msg models.ContactMessage) error {
	subject := msg.Subject
	if subject == "" {
		subject = "New message"
	}
	e := email.NewEmail()
	e.From = fmt.Sprintf("Mortgage Simulator Contact <%s>", s.cfg.SenderEmail)
	e.To = []string{s.cfg.NotifyEmail}
	e.ReplyTo = []string{msg.Email}
	e.Subject = "[Contact] " + subject
	e.Text = []byte(contactBody(msg, s.now()))

	return s.deliver(e, logrus.Fields{
		"from":    msg.Email,
		"subject": subject,
	})
}

// deliver sends e, or only logs it when SMTP is not configured
func (s *Sender) deliver(e *email.Email, fields logrus.Fields) error {
	if !s.cfg.MailEnabled() {
		s.logger.WithFields(fields).Infof("SMTP not configured, email not sent: %s", e.Subject)
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.WithFields(fields).Errorf("Failed to send email: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(fields).Infof("Email sent to %s: %s", strings.Join(e.To, ","), e.Subject)
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func leadBody(lead *models.Lead, now time.Time) string {
	contribution := "Not provided"
	if lead.PersonalContribution > 0 {
		contribution = mortgage.FormatEuros(lead.PersonalContribution)
	}
	payment := "Not calculated"
	if lead.MonthlyPayment > 0 {
		payment = mortgage.FormatEuros(lead.MonthlyPayment) + "/month"
	}
	rate := "Not provided"
	if lead.RateUsed > 0 {
		rate = mortgage.FormatPercent(lead.RateUsed, 2)
	}

	var b strings.Builder
	b.WriteString("New lead captured!\n\n")
	b.WriteString("CONTACT\n")
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Phone: %s\n\n", lead.Phone)
	b.WriteString("PROJECT\n")
	fmt.Fprintf(&b, "Amount borrowed: %s\n", mortgage.FormatEuros(lead.LoanAmount))
	fmt.Fprintf(&b, "Term: %d years\n", lead.TermYears)
	fmt.Fprintf(&b, "Rate: %s\n", rate)
	fmt.Fprintf(&b, "Contribution: %s\n", contribution)
	fmt.Fprintf(&b, "Estimated payment: %s\n\n", payment)
	b.WriteString("PROFILE\n")
	fmt.Fprintf(&b, "Net monthly income: %s\n", mortgage.FormatEuros(lead.NetMonthlyIncome))
	fmt.Fprintf(&b, "Source: %s\n", orUnset(lead.UTM.Source))
	fmt.Fprintf(&b, "\n---\nSent on %s", now.Format("2006-01-02 15:04:05"))
	return b.String()
}

func contactBody(msg models.ContactMessage, now time.Time) string {
	return fmt.Sprintf(
		"New contact message\n\n"+
			"Name: %s\n"+
			"Email: %s\n"+
			"Phone: %s\n"+
			"Subject: %s\n\n"+
			"Message:\n%s\n\n"+
			"---\nSent on %s",
		msg.Name, msg.Email, orUnset(msg.Phone), orUnset(msg.Subject), msg.Message,
		now.Format("2006-01-02 15:04:05"),
	)
}
