// Package email sends the scheduling-team emails raised by the reassignment scan.
package email

import (
	"context"
	"fmt"

	awsclient "assignment-notifier/internal/common/aws"
	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier is the email collaborator of the reassignment scan.
type Notifier interface {
	NotifyPreferredContractorNotMatched(ctx context.Context, assignmentNumber string) error
	NotifyPreferredContractorMatchedNotAssigned(ctx context.Context, assignmentNumber string) error
}

const (
	KindPreferredNotMatched         = "preferred-not-matched"
	KindPreferredMatchedNotAssigned = "preferred-matched-not-assigned"
)

type message struct {
	subject string
	body    string
}

var messages = map[string]message{
	KindPreferredNotMatched: {
		subject: "Preferred contractor not found for assignment %s",
		body: "The preferred contractor for assignment %s could not be matched. " +
			"Please assign a contractor manually.",
	},
	KindPreferredMatchedNotAssigned: {
		subject: "Preferred contractor not assigned for assignment %s",
		body: "A preferred contractor was found for assignment %s but has not accepted the job. " +
			"Please follow up with the contractor or assign another one.",
	},
}

// Config holds the sender and the scheduling mailbox.
type Config struct {
	FromEmail  string
	Recipients []string
}

// SESNotifier sends plain-text emails through SES.
type SESNotifier struct {
	config *Config
	client awsclient.SESAPI
	logger logger.Logger
}

func NewSESNotifier(config *Config, client awsclient.SESAPI, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "email"}),
	}
}

func (n *SESNotifier) NotifyPreferredContractorNotMatched(ctx context.Context, assignmentNumber string) error {
	return n.send(ctx, KindPreferredNotMatched, assignmentNumber)
}

func (n *SESNotifier) NotifyPreferredContractorMatchedNotAssigned(ctx context.Context, assignmentNumber string) error {
	return n.send(ctx, KindPreferredMatchedNotAssigned, assignmentNumber)
}

func (n *SESNotifier) send(ctx context.Context, kind, assignmentNumber string) error {
	msg := messages[kind]
	subject := fmt.Sprintf(msg.subject, assignmentNumber)

	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.config.FromEmail),
		Destination: &types.Destination{ToAddresses: n.config.Recipients},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(fmt.Sprintf(msg.body, assignmentNumber)), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return apperrors.NewEmailSendFailedError(kind, err)
	}

	n.logger.Info("email sent", map[string]interface{}{
		"kind":             kind,
		"assignmentNumber": assignmentNumber,
		"messageId":        aws.ToString(out.MessageId),
	})
	return nil
}

// Noop is used when email is disabled.
type Noop struct{}

func (Noop) NotifyPreferredContractorNotMatched(context.Context, string) error         { return nil }
func (Noop) NotifyPreferredContractorMatchedNotAssigned(context.Context, string) error { return nil }
