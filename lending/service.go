// Package lending owns the circulation lifecycle: the copy ledger, loans,
// the reservation queue and penalties. Every mutating operation runs in a
// single transaction; notifications go out only after it commits.
package lending

import (
	"context"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Notifier receives lifecycle events once their transaction has committed.
// Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *models.Notification) {}

type Service struct {
	repo     *db.Repo
	notifier Notifier
	pol      Policy
	log      *zap.Logger
	now      func() time.Time
	validate *validator.Validate
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo *db.Repo, pol Policy, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: nopNotifier{},
		pol:      pol,
		log:      zap.NewNop(),
		now:      time.Now,
		validate: validator.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Policy() Policy { return s.pol }

func (s *Service) clock() time.Time { return s.now().UTC() }

// outbox buffers notifications raised inside a transaction.
type outbox struct{ items []*models.Notification }

func (o *outbox) add(n *models.Notification) { o.items = append(o.items, n) }

func (s *Service) inTx(ctx context.Context, fn func(tx *db.Repo, out *outbox) error) error {
	out := &outbox{}
	if err := s.repo.InTx(ctx, func(tx *db.Repo) error { return fn(tx, out) }); err != nil {
		return translate(err)
	}
	for _, n := range out.items {
		s.notifier.Notify(ctx, n)
	}
	return nil
}
