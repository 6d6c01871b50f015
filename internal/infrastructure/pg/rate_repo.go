package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"
	"ratebot-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RateRepo struct{ db *DB }

var _ application.RateStore = (*RateRepo)(nil)

func NewRateRepo(db *DB) *RateRepo { return &RateRepo{db: db} }

func (r *RateRepo) LastRate(ctx context.Context, code domain.Code) (decimal.NullDecimal, error) {
	const q = `SELECT rate::text FROM rates WHERE code=$1 ORDER BY id DESC LIMIT 1`
	var raw string
	err := r.db.Pool.QueryRow(ctx, q, string(code)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		logx.L().Error("sql.query_failed",
			zap.String("repo", "rates"),
			zap.String("operation", "LastRate"),
			zap.String("code", string(code)),
			zap.Error(err))
		return decimal.NullDecimal{}, err
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse stored rate %q: %w", raw, err)
	}
	return decimal.NewNullDecimal(v), nil
}

func (r *RateRepo) Append(ctx context.Context, o domain.RateObservation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	const ins = `INSERT INTO rates(code, rate, observed_at) VALUES ($1, $2::numeric, $3)`
	log := logx.L().With(
		zap.String("repo", "rates"),
		zap.String("operation", "Append"),
		zap.String("code", string(o.Code)),
	)
	log.Debug("sql.exec_start")
	if _, err := r.db.Pool.Exec(ctx, ins, string(o.Code), o.Rate.String(), o.ObservedAt.UTC()); err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success")
	return nil
}

func (r *RateRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	const del = `
        DELETE FROM rates r
        WHERE r.observed_at < $1
          AND r.id <> (SELECT max(x.id) FROM rates x WHERE x.code = r.code)`
	tag, err := r.db.Pool.Exec(ctx, del, before.UTC())
	if err != nil {
		logx.L().Error("sql.exec_failed",
			zap.String("repo", "rates"),
			zap.String("operation", "Prune"),
			zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
