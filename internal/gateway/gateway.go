// Package gateway adapts push providers to the two sends the dispatcher issues.
package gateway

import (
	"context"
	"fmt"
	"strings"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/models"
)

// Gateway delivers push notifications. SendSingle carries a visible
// notification to one device, SendMulticast a data-only message to many.
type Gateway interface {
	Name() string
	SendSingle(ctx context.Context, token, title, body string, data models.Payload) (*Result, error)
	SendMulticast(ctx context.Context, tokens []string, data models.Payload) (*Result, error)
}

// Class separates provider rejections from transport failures.
type Class string

const (
	ClassProvider  Class = "provider"
	ClassTransport Class = "transport"
)

// TokenFailure is a per-token rejection reported by the provider. Fatal
// marks a dead token. Rejected marks a message the provider refused, which
// says nothing about the token itself.
type TokenFailure struct {
	Token    string
	Reason   string
	Fatal    bool
	Rejected bool
}

// Result summarizes one send.
type Result struct {
	Provider   string
	MessageIDs []string
	Delivered  int
	Failures   []TokenFailure
}

// InvalidTokens lists tokens the provider will never accept again.
func (r *Result) InvalidTokens() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, f := range r.Failures {
		if f.Fatal {
			out = append(out, f.Token)
		}
	}
	return out
}

// Error is returned when nothing was delivered.
type Error struct {
	Class         Class
	Provider      string
	Reason        string
	InvalidTokens []string
	err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Class, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.err
}

// StandardError maps the gateway error onto the shared error codes.
func (e *Error) StandardError() *apperrors.StandardError {
	if e.Class == ClassProvider {
		return apperrors.NewGatewayProviderError(e.Provider, e)
	}
	return apperrors.NewGatewayTransportError(e.Provider, e)
}

func transportError(provider string, err error) *Error {
	return &Error{Class: ClassTransport, Provider: provider, Reason: err.Error(), err: err}
}

func providerError(provider, reason string, invalid []string) *Error {
	return &Error{Class: ClassProvider, Provider: provider, Reason: reason, InvalidTokens: invalid}
}

// settle turns a result with per-token failures into the error a caller
// sees. A send counts as delivered if any token was accepted.
func settle(res *Result) (*Result, error) {
	if res.Delivered > 0 || len(res.Failures) == 0 {
		return res, nil
	}

	class := ClassTransport
	reasons := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		if f.Fatal || f.Rejected {
			class = ClassProvider
		}
		reasons = append(reasons, f.Reason)
	}
	return res, &Error{
		Class:         class,
		Provider:      res.Provider,
		Reason:        strings.Join(dedupe(reasons), ", "),
		InvalidTokens: res.InvalidTokens(),
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
