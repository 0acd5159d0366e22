package indexer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// PostgresStore is the Postgres read model.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("indexer dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// InsertTxs records txs, skipping hashes already stored.
func (s *PostgresStore) InsertTxs(ctx context.Context, txs []types.TxResult) error {
	if len(txs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, res := range txs {
		batch.Queue(`
			INSERT INTO oracle_txs (hash, height, block_time, type, signer, code, log)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (hash) DO NOTHING
		`,
			res.Hash,
			res.Height,
			res.Time,
			res.Type,
			res.Signer,
			int32(res.Code),
			res.Log,
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertRequests inserts or updates requests.
func (s *PostgresStore) UpsertRequests(ctx context.Context, reqs []oracletypes.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, req := range reqs {
		batch.Queue(`
			INSERT INTO oracle_requests (
				address, requester, oracle, data_type, quantity, status,
				created_at, payment_amount, settled_at, nonce, reason, updated_at
			) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::numeric, $9, $10::numeric, $11, now())
			ON CONFLICT (address)
			DO UPDATE SET
				status = EXCLUDED.status,
				payment_amount = EXCLUDED.payment_amount,
				settled_at = EXCLUDED.settled_at,
				reason = EXCLUDED.reason,
				updated_at = now()
		`,
			req.Address.String(),
			req.Requester.String(),
			req.Oracle.String(),
			req.DataType,
			strconv.FormatUint(req.Quantity, 10),
			req.Status.String(),
			req.CreatedAt,
			strconv.FormatUint(req.PaymentAmount, 10),
			req.SettledAt,
			strconv.FormatUint(req.Nonce, 10),
			req.Reason,
		)
	}
	return s.sendBatch(ctx, batch)
}

func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// FeedStats aggregates the requests of one data type.
type FeedStats struct {
	DataType string `json:"data_type" yaml:"data_type"`
	Requests int64  `json:"requests" yaml:"requests"`
	Pending  int64  `json:"pending" yaml:"pending"`
	Verified int64  `json:"verified" yaml:"verified"`
	Settled  int64  `json:"settled" yaml:"settled"`
	Rejected int64  `json:"rejected" yaml:"rejected"`
	Volume   string `json:"volume" yaml:"volume"`
}

// Stats returns per data type totals ordered by request count.
func (s *PostgresStore) Stats(ctx context.Context) ([]FeedStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			data_type,
			count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'verified'),
			count(*) FILTER (WHERE status = 'settled'),
			count(*) FILTER (WHERE status = 'rejected'),
			COALESCE(sum(payment_amount), 0)::text
		FROM oracle_requests
		GROUP BY data_type
		ORDER BY count(*) DESC, data_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []FeedStats{}
	for rows.Next() {
		var fs FeedStats
		if err := rows.Scan(&fs.DataType, &fs.Requests, &fs.Pending, &fs.Verified, &fs.Settled, &fs.Rejected, &fs.Volume); err != nil {
			return nil, err
		}
		stats = append(stats, fs)
	}
	return stats, rows.Err()
}
