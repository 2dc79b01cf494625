package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/pkg/metrics"
)

// tokenBytes gives 256 bits of entropy.
const tokenBytes = 32

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithDefaultTTL(minutes int) Option {
	return func(s *Service) {
		s.defaultTTLMinutes = minutes
	}
}

func WithGenerator(generate func() (string, error)) Option {
	return func(s *Service) {
		s.generate = generate
	}
}

type Service struct {
	store             Store
	now               func() time.Time
	generate          func() (string, error)
	defaultTTLMinutes int
}

var (
	_ order.EntitlementIssuer = (*Service)(nil)
	_ order.PointerValidator  = (*Service)(nil)
)

func NewTokenService(store Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		now:               func() time.Time { return time.Now().UTC() },
		generate:          randomToken,
		defaultTTLMinutes: DefaultTTLMinutes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) Issue(ctx context.Context, request IssueRequest) (Issued, error) {
	files, err := request.Files()
	if err != nil {
		metrics.TokenOperations.WithLabelValues("issue", "rejected").Inc()
		return Issued{}, err
	}

	now := s.now()
	s.purgeExpired(ctx, now)

	value, err := s.generate()
	if err != nil {
		return Issued{}, fmt.Errorf("generate token: %w", err)
	}

	t := Token{
		Token:     value,
		FilePaths: files,
		OrderID:   request.OrderID,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL(request.ExpiresInMinutes, s.defaultTTLMinutes)),
	}
	if err := s.store.Create(ctx, t); err != nil {
		metrics.TokenOperations.WithLabelValues("issue", "error").Inc()
		if errors.Is(err, ErrOrderNotFound) {
			return Issued{}, err
		}
		return Issued{}, fmt.Errorf("store token: %w", err)
	}

	metrics.TokenOperations.WithLabelValues("issue", "ok").Inc()
	slog.InfoContext(ctx, "Download token issued",
		"files", len(files),
		"order_bound", t.OrderID != nil,
		"expires_at", t.ExpiresAt)

	return Issued{Token: t.Token, ExpiresAt: t.ExpiresAt}, nil
}

// IssueForOrder grants access to the digital files of a paid order with the default lifetime.
func (s *Service) IssueForOrder(ctx context.Context, orderID string, filePaths []string) (order.DownloadGrant, error) {
	issued, err := s.Issue(ctx, IssueRequest{FilePaths: filePaths, OrderID: &orderID})
	if err != nil {
		return order.DownloadGrant{}, err
	}
	return order.DownloadGrant{Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

// Resolve returns a redeemable token. Consumption is checked before expiry so a
// completed token always reports ErrAlreadyConsumed.
func (s *Service) Resolve(ctx context.Context, value string) (Token, error) {
	t, err := s.store.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("get token: %w", err)
	}

	if t.Completed {
		return Token{}, ErrAlreadyConsumed
	}

	if t.Purged() {
		return Token{}, ErrExpired
	}

	if t.ExpiredAt(s.now()) {
		if err := s.store.Purge(ctx, value); err != nil {
			slog.WarnContext(ctx, "Failed to purge expired download token", slog.Any("error", err))
		} else {
			metrics.TokensPurged.Inc()
		}
		return Token{}, ErrExpired
	}

	return t, nil
}

// Begin records that a download started. It can be repeated until completion.
func (s *Service) Begin(ctx context.Context, value string) (Token, error) {
	t, err := s.Resolve(ctx, value)
	if err != nil {
		metrics.TokenOperations.WithLabelValues("redeem", resultLabel(err)).Inc()
		return Token{}, err
	}

	now := s.now()
	if err := s.store.MarkStarted(ctx, value, now); err != nil {
		return Token{}, fmt.Errorf("mark started: %w", err)
	}
	t.Started = true
	if t.StartedAt == nil {
		t.StartedAt = &now
	}

	metrics.TokenOperations.WithLabelValues("redeem", "ok").Inc()
	return t, nil
}

// Complete consumes the token. Exactly one caller wins; the rest get ErrAlreadyConsumed.
func (s *Service) Complete(ctx context.Context, value string) error {
	ok, err := s.store.MarkCompleted(ctx, value, s.now())
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if ok {
		metrics.TokenOperations.WithLabelValues("complete", "ok").Inc()
		return nil
	}

	err = s.completionRejection(ctx, value)
	metrics.TokenOperations.WithLabelValues("complete", resultLabel(err)).Inc()
	return err
}

func (s *Service) completionRejection(ctx context.Context, value string) error {
	t, err := s.store.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get token: %w", err)
	}
	if t.Purged() && !t.Completed {
		return ErrExpired
	}
	return ErrAlreadyConsumed
}

// IsLive reports whether the token can still be redeemed.
func (s *Service) IsLive(ctx context.Context, value string) (bool, error) {
	_, err := s.Resolve(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired), errors.Is(err, ErrAlreadyConsumed):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) purgeExpired(ctx context.Context, now time.Time) {
	n, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		slog.WarnContext(ctx, "Failed to purge expired download tokens", slog.Any("error", err))
		return
	}
	if n > 0 {
		metrics.TokensPurged.Add(float64(n))
		slog.DebugContext(ctx, "Purged expired download tokens", "count", n)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyConsumed):
		return "consumed"
	default:
		return "error"
	}
}
