package email

import (
	"context"
	"errors"
	"testing"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock SES Implementation
// ==========================

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

func newNotifier(t *testing.T, client *MockSES) *SESNotifier {
	return NewSESNotifier(&Config{
		FromEmail:  "noreply@example.com",
		Recipients: []string{"scheduling@example.com"},
	}, client, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestSESNotifier_Messages(t *testing.T) {
	tests := []struct {
		name        string
		send        func(n *SESNotifier) error
		wantSubject string
		wantBody    string
	}{
		{
			name:        "preferred not matched",
			send:        func(n *SESNotifier) error { return n.NotifyPreferredContractorNotMatched(context.Background(), "100200") },
			wantSubject: "Preferred contractor not found for assignment 100200",
			wantBody:    "could not be matched",
		},
		{
			name: "preferred matched not assigned",
			send: func(n *SESNotifier) error {
				return n.NotifyPreferredContractorMatchedNotAssigned(context.Background(), "100200")
			},
			wantSubject: "Preferred contractor not assigned for assignment 100200",
			wantBody:    "has not accepted the job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockSES)
			client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
				return aws.ToString(in.Source) == "noreply@example.com" &&
					assert.ObjectsAreEqual([]string{"scheduling@example.com"}, in.Destination.ToAddresses) &&
					aws.ToString(in.Message.Subject.Data) == tt.wantSubject
			})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil).Once()

			require.NoError(t, tt.send(newNotifier(t, client)))
			client.AssertExpectations(t)

			in := client.Calls[0].Arguments.Get(1).(*ses.SendEmailInput)
			assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), tt.wantBody)
			assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), "100200")
		})
	}
}

func TestSESNotifier_SendError(t *testing.T) {
	client := new(MockSES)
	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := newNotifier(t, client).NotifyPreferredContractorNotMatched(context.Background(), "100200")
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeEmailSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, KindPreferredNotMatched)
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	assert.NoError(t, n.NotifyPreferredContractorNotMatched(context.Background(), "1"))
	assert.NoError(t, n.NotifyPreferredContractorMatchedNotAssigned(context.Background(), "1"))
}
