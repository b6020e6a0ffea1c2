package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var _ ports.SubscriberRepository = (*Store)(nil)

var subscriberColumns = []string{"id", "email", "status", "unsubscribe_token", "subscribed_at", "confirmed_at"}

// NormalizeEmail lowercases and trims an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return normalized, nil
}

// CreateSubscriber stores an active subscriber with a fresh unsubscribe token.
func (s *Store) CreateSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return domain.Subscriber{}, err
	}

	if _, err := s.GetSubscriberByEmail(ctx, normalized); err == nil {
		return domain.Subscriber{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return domain.Subscriber{}, err
	}

	now := s.now().UTC().Truncate(0)
	sub := domain.Subscriber{
		ID:               uuid.NewString(),
		Email:            normalized,
		Status:           domain.SubscriberActive,
		UnsubscribeToken: uuid.NewString(),
		SubscribedAt:     now,
		ConfirmedAt:      &now,
	}

	_, err = s.exec(ctx, s.sb.Insert("subscribers").
		Columns(subscriberColumns...).
		Values(sub.ID, sub.Email, string(sub.Status), sub.UnsubscribeToken, formatTime(now), formatTime(now)))
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return sub, nil
}

// GetSubscriberByEmail looks a subscriber up by normalized email.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	list, err := s.selectSubscribers(ctx, s.sb.Select(subscriberColumns...).From("subscribers").
		Where(sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))}))
	if err != nil {
		return domain.Subscriber{}, err
	}
	if len(list) == 0 {
		return domain.Subscriber{}, fmt.Errorf("subscriber %s: %w", email, ErrNotFound)
	}
	return list[0], nil
}

// ListSubscribers returns subscribers by subscription time.
func (s *Store) ListSubscribers(ctx context.Context, activeOnly bool) ([]domain.Subscriber, error) {
	q := s.sb.Select(subscriberColumns...).From("subscribers").OrderBy("subscribed_at")
	if activeOnly {
		q = q.Where(sq.Eq{"status": string(domain.SubscriberActive)})
	}
	return s.selectSubscribers(ctx, q)
}

// Unsubscribe flips the subscriber owning token to unsubscribed.
func (s *Store) Unsubscribe(ctx context.Context, token string) (bool, error) {
	res, err := s.exec(ctx, s.sb.Update("subscribers").
		Set("status", string(domain.SubscriberUnsubscribed)).
		Where(sq.Eq{"unsubscribe_token": token}))
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) selectSubscribers(ctx context.Context, q sq.SelectBuilder) ([]domain.Subscriber, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var (
			sub          domain.Subscriber
			status       string
			subscribedAt string
			confirmedAt  sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.Email, &status, &sub.UnsubscribeToken, &subscribedAt, &confirmedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.Status = domain.SubscriberStatus(status)
		sub.SubscribedAt = parseTime(subscribedAt)
		sub.ConfirmedAt = parseOptionalTime(confirmedAt)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
