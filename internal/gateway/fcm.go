package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apphttp "assignment-notifier/internal/common/http"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/models"
)

// FCMConfig configures the legacy FCM HTTP endpoint.
type FCMConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

// FCM sends through the legacy FCM HTTP API. Tokens are registration ids.
type FCM struct {
	config *FCMConfig
	client *apphttp.Client
	logger logger.Logger
}

func NewFCM(config *FCMConfig, log logger.Logger) *FCM {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &FCM{
		config: config,
		client: apphttp.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "gateway", "provider": "fcm"}),
	}
}

func (f *FCM) Name() string {
	return "fcm"
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	To              string            `json:"to,omitempty"`
	RegistrationIDs []string          `json:"registration_ids,omitempty"`
	Priority        string            `json:"priority"`
	Notification    *fcmNotification  `json:"notification,omitempty"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (f *FCM) SendSingle(ctx context.Context, token, title, body string, data models.Payload) (*Result, error) {
	return f.send(ctx, []string{token}, &fcmRequest{
		To:           token,
		Priority:     "high",
		Notification: &fcmNotification{Title: title, Body: body},
		Data:         data.Map(),
	})
}

func (f *FCM) SendMulticast(ctx context.Context, tokens []string, data models.Payload) (*Result, error) {
	return f.send(ctx, tokens, &fcmRequest{
		RegistrationIDs: tokens,
		Priority:        "high",
		Data:            data.Map(),
	})
}

func (f *FCM) send(ctx context.Context, tokens []string, req *fcmRequest) (*Result, error) {
	headers := map[string]string{"Authorization": "key=" + f.config.ServerKey}

	resp, err := f.client.PostJSON(ctx, f.config.Endpoint, headers, req)
	if err != nil {
		return nil, transportError(f.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, transportError(f.Name(), fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, providerError(f.Name(), fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
	}

	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, transportError(f.Name(), fmt.Errorf("decode response: %w", err))
	}

	res := &Result{Provider: f.Name()}
	for i, r := range out.Results {
		if i >= len(tokens) {
			break
		}
		if r.Error == "" {
			res.Delivered++
			res.MessageIDs = append(res.MessageIDs, r.MessageID)
			continue
		}
		res.Failures = append(res.Failures, TokenFailure{
			Token:    tokens[i],
			Reason:   r.Error,
			Fatal:    isTokenFatal(r.Error),
			Rejected: isMessageRejected(r.Error),
		})
	}

	f.logger.Debug("fcm send finished", map[string]interface{}{
		"tokens":    len(tokens),
		"delivered": res.Delivered,
		"failed":    len(res.Failures),
	})
	return settle(res)
}

// isTokenFatal reports FCM errors meaning the token itself is dead.
func isTokenFatal(reason string) bool {
	switch reason {
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
		return true
	default:
		return false
	}
}

// isMessageRejected reports FCM errors caused by the message rather than
// the device. Retrying the same payload will not help.
func isMessageRejected(reason string) bool {
	switch reason {
	case "MessageTooBig", "InvalidDataKey", "InvalidTtl", "InvalidPackageName":
		return true
	default:
		return false
	}
}
