package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newzify/newzify/internal/domain/subscriber"
	"github.com/newzify/newzify/internal/observability"
)

type SubscribersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSubscribersRepo(pool *pgxpool.Pool, prom *observability.Prom) *SubscribersRepo {
	return &SubscribersRepo{pool: pool, prom: prom}
}

func (r *SubscribersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert records a newsletter subscriber. Subscribing twice with the same email
// is not an error; the existing row wins and created reports false.
func (r *SubscribersRepo) Upsert(ctx context.Context, name, email string) (subscriber.Subscriber, bool, error) {
	s := subscriber.Subscriber{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	var created bool

	err := r.observe("subscribers.upsert", func() error {
		// ON CONFLICT keeps the operation idempotent per email
		tag, e := r.pool.Exec(ctx,
			`INSERT INTO subscribers (id, name, email, created_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (email) DO NOTHING`,
			s.ID, s.Name, s.Email, s.CreatedAt,
		)

		if e != nil {
			return e
		}

		created = tag.RowsAffected() > 0
		return nil
	})

	if err != nil {
		return subscriber.Subscriber{}, false, err
	}

	return s, created, nil
}
