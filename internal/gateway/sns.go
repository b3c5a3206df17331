package gateway

import (
	"context"
	"encoding/json"
	"errors"

	awsclient "assignment-notifier/internal/common/aws"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS publishes to platform application endpoints. Tokens are endpoint ARNs.
type SNS struct {
	client awsclient.SNSAPI
	logger logger.Logger
}

func NewSNS(client awsclient.SNSAPI, log logger.Logger) *SNS {
	return &SNS{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "gateway", "provider": "sns"}),
	}
}

func (s *SNS) Name() string {
	return "sns"
}

func (s *SNS) SendSingle(ctx context.Context, token, title, body string, data models.Payload) (*Result, error) {
	message, err := snsMessage(body, map[string]interface{}{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data.Map(),
	}, apnsPayload(map[string]interface{}{
		"alert": map[string]string{"title": title, "body": body},
		"sound": "default",
	}, data))
	if err != nil {
		return nil, providerError(s.Name(), err.Error(), nil)
	}
	return s.publish(ctx, []string{token}, message)
}

func (s *SNS) SendMulticast(ctx context.Context, tokens []string, data models.Payload) (*Result, error) {
	title, _ := data.Get("title")
	message, err := snsMessage(title, map[string]interface{}{
		"data": data.Map(),
	}, apnsPayload(map[string]interface{}{
		"content-available": 1,
	}, data))
	if err != nil {
		return nil, providerError(s.Name(), err.Error(), nil)
	}
	return s.publish(ctx, tokens, message)
}

func (s *SNS) publish(ctx context.Context, tokens []string, message string) (*Result, error) {
	res := &Result{Provider: s.Name()}
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return res, transportError(s.Name(), err)
		}

		out, err := s.client.Publish(ctx, &sns.PublishInput{
			TargetArn:        aws.String(token),
			Message:          aws.String(message),
			MessageStructure: aws.String("json"),
		})
		if err != nil {
			res.Failures = append(res.Failures, classifySNS(token, err))
			continue
		}
		res.Delivered++
		res.MessageIDs = append(res.MessageIDs, aws.ToString(out.MessageId))
	}

	s.logger.Debug("sns publish finished", map[string]interface{}{
		"tokens":    len(tokens),
		"delivered": res.Delivered,
		"failed":    len(res.Failures),
	})
	return settle(res)
}

// classifySNS treats disabled or missing endpoints as dead tokens, parameter
// errors as provider rejections and everything else as transport failures.
func classifySNS(token string, err error) TokenFailure {
	var (
		disabled     *types.EndpointDisabledException
		notFound     *types.NotFoundException
		invalidParam *types.InvalidParameterException
		invalidValue *types.InvalidParameterValueException
	)
	switch {
	case errors.As(err, &disabled):
		return TokenFailure{Token: token, Reason: "EndpointDisabled", Fatal: true}
	case errors.As(err, &notFound):
		return TokenFailure{Token: token, Reason: "NotFound", Fatal: true}
	case errors.As(err, &invalidParam), errors.As(err, &invalidValue):
		return TokenFailure{Token: token, Reason: "InvalidParameter", Rejected: true}
	default:
		return TokenFailure{Token: token, Reason: err.Error()}
	}
}

func snsMessage(fallback string, gcm map[string]interface{}, apns map[string]interface{}) (string, error) {
	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", err
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]string{
		"default":      fallback,
		"GCM":          string(gcmJSON),
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func apnsPayload(aps map[string]interface{}, data models.Payload) map[string]interface{} {
	out := map[string]interface{}{"aps": aps}
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		out[k] = v
	}
	return out
}
