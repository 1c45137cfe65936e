package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendSandboxSender is Resend's shared test sender.
const ResendSandboxSender = "onboarding@resend.dev"

// ResendProvider sends through Resend and, when an audience is configured,
// keeps recipients in that audience.
type ResendProvider struct {
	client     *resend.Client
	audienceID string
}

func NewResendProvider(apiKey, audienceID string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey), audienceID: audienceID}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) SandboxSender() string { return ResendSandboxSender }

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	_, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	return err
}

// AddContact adds email to the audience. An existing contact is not an error.
func (p *ResendProvider) AddContact(ctx context.Context, email string) error {
	if p.audienceID == "" {
		return nil
	}
	_, err := p.client.Contacts.CreateWithContext(ctx, &resend.CreateContactRequest{
		Email:        email,
		AudienceId:   p.audienceID,
		Unsubscribed: false,
	})
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	return err
}
