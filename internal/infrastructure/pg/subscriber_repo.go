package pg

import (
	"context"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"
)

type SubscriberRepo struct{ db *DB }

var _ application.SubscriberStore = (*SubscriberRepo)(nil)

func NewSubscriberRepo(db *DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

func (r *SubscriberRepo) Add(ctx context.Context, id domain.SubscriberID) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO subscribers(user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, int64(id))
	return err
}

func (r *SubscriberRepo) Remove(ctx context.Context, id domain.SubscriberID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM subscribers WHERE user_id=$1`, int64(id))
	return err
}

func (r *SubscriberRepo) List(ctx context.Context) ([]domain.SubscriberID, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT user_id FROM subscribers ORDER BY subscribed_at, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.SubscriberID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, domain.SubscriberID(id))
	}
	return out, rows.Err()
}
