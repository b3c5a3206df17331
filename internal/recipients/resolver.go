// Package recipients resolves who receives a notification on each channel.
package recipients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/models"

	"github.com/redis/go-redis/v9"
)

const suppressedKeyPrefix = "push:token:suppressed:"

// Subject is whose device the mobile channel targets.
type Subject int

const (
	SubjectNone Subject = iota
	SubjectContractor
	SubjectClaimant
)

// SubjectFor picks the mobile subject by category.
func SubjectFor(c models.Category) Subject {
	switch c {
	case models.CategoryTrackingCheckpoint:
		return SubjectClaimant
	case models.CategoryAssignmentAccepted,
		models.CategoryAssignmentCancelled,
		models.CategoryClaimantCancelled,
		models.CategoryUpcomingAssignmentReminder,
		models.CategoryAssignmentRequestWithdrawn,
		models.CategoryForcedAssignment,
		models.CategoryContractorRequest:
		return SubjectContractor
	default:
		return SubjectNone
	}
}

// Config holds resolver settings.
type Config struct {
	ExcludedGroup  string
	SuppressionTTL time.Duration
}

// Resolver reads recipients from the scheduling database. It never writes
// there; suppression state lives in Redis.
type Resolver struct {
	config *Config
	db     *sql.DB
	redis  redis.Cmdable
	logger logger.Logger
}

// NewResolver builds a resolver. rdb may be nil to disable token suppression.
func NewResolver(config *Config, db *sql.DB, rdb redis.Cmdable, log logger.Logger) *Resolver {
	return &Resolver{
		config: config,
		db:     db,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "recipients"}),
	}
}

// Resolve returns the recipient for one channel. An empty recipient means the
// channel is skipped.
func (r *Resolver) Resolve(ctx context.Context, event models.NotificationEvent, channel models.Channel) (models.Recipient, error) {
	switch channel {
	case models.ChannelMobile:
		return r.mobile(ctx, event)
	case models.ChannelWeb:
		return r.Audience(ctx)
	default:
		return models.Recipient{}, fmt.Errorf("unknown channel %q", channel)
	}
}

func (r *Resolver) mobile(ctx context.Context, event models.NotificationEvent) (models.Recipient, error) {
	var userID, token string

	if id := event.SubjectID(); id != "" {
		userID = id
		err := r.db.QueryRowContext(ctx, userTokenQuery, id).Scan(&token)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.Recipient{}, apperrors.NewRecipientLookupFailedError(string(models.ChannelMobile), err)
		}
	} else {
		var query string
		switch SubjectFor(event.Category()) {
		case SubjectContractor:
			query = contractorTokenQuery
		case SubjectClaimant:
			query = claimantTokenQuery
		default:
			return models.Recipient{}, nil
		}

		err := r.db.QueryRowContext(ctx, query, event.AssignmentID()).Scan(&userID, &token)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.Recipient{}, apperrors.NewRecipientLookupFailedError(string(models.ChannelMobile), err)
		}
	}

	tokens := r.filterSuppressed(ctx, models.DedupeTokens([]string{token}))
	if len(tokens) == 0 {
		return models.Recipient{}, nil
	}
	return models.Recipient{
		Audience:     models.AudienceSingle,
		DeviceTokens: tokens,
		UserIDs:      []string{userID},
	}, nil
}

// Audience returns the current web broadcast audience. It is queried fresh
// on every call.
func (r *Resolver) Audience(ctx context.Context) (models.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, audienceQuery, r.config.ExcludedGroup)
	if err != nil {
		return models.Recipient{}, apperrors.NewRecipientLookupFailedError(string(models.ChannelWeb), err)
	}
	defer rows.Close()

	var userIDs, tokens []string
	for rows.Next() {
		var userID, token string
		if err := rows.Scan(&userID, &token); err != nil {
			return models.Recipient{}, apperrors.NewRecipientLookupFailedError(string(models.ChannelWeb), err)
		}
		userIDs = append(userIDs, userID)
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return models.Recipient{}, apperrors.NewRecipientLookupFailedError(string(models.ChannelWeb), err)
	}

	live := r.filterSuppressed(ctx, models.DedupeTokens(tokens))
	if len(live) == 0 {
		return models.Recipient{}, nil
	}

	// A user stays in the audience only while one of their tokens does.
	kept := make(map[string]struct{}, len(live))
	for _, t := range live {
		kept[t] = struct{}{}
	}
	users := userIDs[:0:0]
	for i, id := range userIDs {
		if _, ok := kept[tokens[i]]; ok {
			users = append(users, id)
		}
	}

	return models.Recipient{
		Audience:     models.AudienceBroadcast,
		DeviceTokens: live,
		UserIDs:      models.DedupeTokens(users),
	}, nil
}

// Suppress hides a token from future resolutions for the configured TTL.
func (r *Resolver) Suppress(ctx context.Context, token string) error {
	if r.redis == nil || token == "" {
		return nil
	}
	if err := r.redis.Set(ctx, suppressedKeyPrefix+token, "1", r.config.SuppressionTTL).Err(); err != nil {
		return fmt.Errorf("suppress token: %w", err)
	}
	metrics.TokensSuppressed.Inc()
	return nil
}

// filterSuppressed drops suppressed tokens. Redis errors leave the list
// unfiltered.
func (r *Resolver) filterSuppressed(ctx context.Context, tokens []string) []string {
	if r.redis == nil || len(tokens) == 0 {
		return tokens
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = suppressedKeyPrefix + t
	}

	vals, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warn("token suppression lookup failed", map[string]interface{}{
			"error":  err,
			"tokens": len(tokens),
		})
		return tokens
	}

	out := tokens[:0:0]
	for i, v := range vals {
		if v == nil {
			out = append(out, tokens[i])
		}
	}
	return out
}
