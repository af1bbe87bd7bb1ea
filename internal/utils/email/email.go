package email

import (
	"fmt"
	"net/smtp"

	"github.com/dorlov/fintrack/internal/config"
	"github.com/dorlov/fintrack/internal/currency"
	"github.com/dorlov/fintrack/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendForecastDigest sends the monthly spending forecast summary
func (s *Sender) SendForecastDigest(to, username string, result *models.ForecastResult) error {
	if result.Forecast == nil {
		return fmt.Errorf("digest requires a populated forecast")
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your Monthly Spending Forecast"

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	body += fmt.Sprintf(
		"Based on your recent spending, next month's expenses are projected at %s.\n"+
			"Your monthly average over the same period was %s, a trend we would call %s.\n",
		currency.FormatAmount(*result.Forecast, result.Currency),
		currency.FormatAmount(result.Average, result.Currency),
		result.Trend,
	)
	if result.ChangePercent != 0 {
		body += fmt.Sprintf("That is a %+.1f%% change against your average.\n", result.ChangePercent)
	}
	body += "\nBest regards,\nFintrack"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send digest to %s: %v", to, err)
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
