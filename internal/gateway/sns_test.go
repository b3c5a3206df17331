package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"assignment-notifier/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockSNS struct {
	PublishFunc func(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, input, optFns...)
}

// ==========================
// Tests
// ==========================

func TestSNS_SendSingle(t *testing.T) {
	var input *sns.PublishInput
	gw := NewSNS(&mockSNS{
		PublishFunc: func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			input = in
			return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
		},
	}, logger.NewTestLogger(t))

	res, err := gw.SendSingle(context.Background(), "arn:aws:sns:endpoint/1", "Trip Update", "Driver started", testPayload())
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1"}, res.MessageIDs)

	require.NotNil(t, input)
	assert.Equal(t, "arn:aws:sns:endpoint/1", aws.ToString(input.TargetArn))
	assert.Equal(t, "json", aws.ToString(input.MessageStructure))

	var envelope map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &envelope))
	assert.Equal(t, "Driver started", envelope["default"])

	var gcm struct {
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(envelope["GCM"]), &gcm))
	assert.Equal(t, "Trip Update", gcm.Notification["title"])
	assert.Equal(t, "A-1", gcm.Data["assignmentId"])

	var apns map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(envelope["APNS"]), &apns))
	assert.Equal(t, "A-1", apns["assignmentId"])
}

func TestSNS_SendMulticast(t *testing.T) {
	published := 0
	gw := NewSNS(&mockSNS{
		PublishFunc: func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published++
			switch aws.ToString(in.TargetArn) {
			case "dead":
				return nil, &types.EndpointDisabledException{Message: aws.String("Endpoint is disabled")}
			case "flaky":
				return nil, errors.New("connection reset by peer")
			}
			var envelope map[string]string
			_ = json.Unmarshal([]byte(aws.ToString(in.Message)), &envelope)
			assert.NotContains(t, envelope["GCM"], "notification")
			return &sns.PublishOutput{MessageId: aws.String("m")}, nil
		},
	}, logger.NewTestLogger(t))

	res, err := gw.SendMulticast(context.Background(), []string{"ok-1", "dead", "flaky", "ok-2"}, testPayload())
	require.NoError(t, err)
	assert.Equal(t, 4, published)
	assert.Equal(t, 2, res.Delivered)
	assert.Equal(t, []string{"dead"}, res.InvalidTokens())
	assert.Len(t, res.Failures, 2)
}

func TestSNS_SendSingle_Failures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantClass   Class
		wantInvalid []string
	}{
		{
			name:        "endpoint disabled",
			err:         &types.EndpointDisabledException{Message: aws.String("disabled")},
			wantClass:   ClassProvider,
			wantInvalid: []string{"arn-1"},
		},
		{
			name:        "endpoint not found",
			err:         &types.NotFoundException{Message: aws.String("missing")},
			wantClass:   ClassProvider,
			wantInvalid: []string{"arn-1"},
		},
		{
			name:      "invalid parameter",
			err:       &types.InvalidParameterException{Message: aws.String("message too long")},
			wantClass: ClassProvider,
		},
		{
			name:      "network",
			err:       errors.New("i/o timeout"),
			wantClass: ClassTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewSNS(&mockSNS{
				PublishFunc: func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
					return nil, tt.err
				},
			}, logger.NewNoOpLogger())

			_, err := gw.SendSingle(context.Background(), "arn-1", "t", "b", testPayload())
			var gwErr *Error
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.wantClass, gwErr.Class)
			assert.Equal(t, tt.wantInvalid, gwErr.InvalidTokens)
		})
	}
}

func TestSNS_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewSNS(&mockSNS{
		PublishFunc: func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			t.Fatal("publish called after cancel")
			return nil, nil
		},
	}, logger.NewNoOpLogger())

	_, err := gw.SendMulticast(ctx, []string{"a", "b"}, testPayload())
	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, ClassTransport, gwErr.Class)
}
