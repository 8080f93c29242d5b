package services

import (
	"context"
	"fmt"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// NotifyService emails an account owner when an admin processes one of their
// requests. Sending is best-effort: every failure is logged and swallowed so
// it can never surface as a failure of the business operation.
type NotifyService struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
}

// NewNotifyService creates a new notify service. Without a configured Brevo
// API key the service is a no-op.
func NewNotifyService() *NotifyService {
	if config.AppConfig == nil || config.AppConfig.BrevoAPIKey == "" {
		return &NotifyService{}
	}

	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", config.AppConfig.BrevoAPIKey)
	return &NotifyService{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: config.AppConfig.BrevoFromEmail,
		fromName:  config.AppConfig.BrevoFromName,
	}
}

// NotifyAccount sends a transactional email to the account's address, if the
// account has one.
func (s *NotifyService) NotifyAccount(username, subject, body string) {
	if s.client == nil {
		return
	}

	account, err := database.GetAccountByUsername(database.GetDB(), username)
	if err != nil || account.Email == "" {
		return
	}

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To:          []brevo.SendSmtpEmailTo{{Email: account.Email, Name: username}},
		Subject:     subject,
		TextContent: body,
		HtmlContent: fmt.Sprintf("<p>%s</p>", body),
	}

	_, _, err = s.client.TransactionalEmailsApi.SendTransacEmail(context.Background(), email)
	if err != nil {
		logging.Errorf("Failed to send %q email to %s: %v", subject, username, err)
		return
	}
	logging.Infof("Sent %q email to %s", subject, username)
}
