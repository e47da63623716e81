package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// EmailService sends counterpart-facing email via Resend
type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// SendDocumentLink emails the counterpart their personal access link. Used
// both on first send and on link reissue.
func (s *EmailService) SendDocumentLink(ctx context.Context, doc *models.Document, link string) error {
	docKind := "invoice"
	if doc.Type == models.DocTypeContract {
		docKind = "contract"
	}

	expiresAt := ""
	if doc.TokenExpiresAt != nil {
		expiresAt = doc.TokenExpiresAt.Format("02/01/2006")
	}

	data := struct {
		Title       string
		Name        string
		CompanyName string
		DocKind     string
		IsContract  bool
		Link        string
		ExpiresAt   string
	}{
		Title:       doc.Title,
		Name:        doc.Client.FullName,
		CompanyName: doc.Tenant.CompanyName,
		DocKind:     docKind,
		IsContract:  doc.Type == models.DocTypeContract,
		Link:        link,
		ExpiresAt:   expiresAt,
	}

	body, err := s.renderTemplate("document_link.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s sent you a %s: %s", doc.Tenant.CompanyName, docKind, doc.Title)
	return s.send(doc.Client.Email, subject, body)
}

// SendSignedConfirmation emails the counterpart after a contract is signed
func (s *EmailService) SendSignedConfirmation(ctx context.Context, doc *models.Document) error {
	signedAt := ""
	if doc.SignedAt != nil {
		signedAt = doc.SignedAt.Format("02/01/2006 15:04")
	}

	data := struct {
		Title       string
		Name        string
		CompanyName string
		SignedAt    string
	}{
		Title:       doc.Title,
		Name:        doc.Client.FullName,
		CompanyName: doc.Tenant.CompanyName,
		SignedAt:    signedAt,
	}

	body, err := s.renderTemplate("signed_confirmation.html", data)
	if err != nil {
		return err
	}
	return s.send(doc.Client.Email, fmt.Sprintf("Signed: %s", doc.Title), body)
}

// SendPaymentReceipt emails the counterpart after a successful gateway payment
func (s *EmailService) SendPaymentReceipt(ctx context.Context, doc *models.Document, payment *models.Payment) error {
	data := struct {
		Title       string
		Name        string
		CompanyName string
		Amount      string
		AmountDue   string
		FullyPaid   bool
		Reference   string
	}{
		Title:       doc.Title,
		Name:        doc.Client.FullName,
		CompanyName: doc.Tenant.CompanyName,
		Amount:      fmt.Sprintf("%.2f", payment.Amount),
		AmountDue:   fmt.Sprintf("%.2f", doc.AmountDue),
		FullyPaid:   doc.Status == models.StatusPaid,
		Reference:   payment.GatewayTransactionID,
	}

	body, err := s.renderTemplate("payment_receipt.html", data)
	if err != nil {
		return err
	}
	return s.send(doc.Client.Email, fmt.Sprintf("Payment received for %s", doc.Title), body)
}

func (s *EmailService) send(to, subject, html string) error {
	if to == "" {
		return fmt.Errorf("recipient email is empty")
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
