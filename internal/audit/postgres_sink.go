package audit

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists kill receipts with pgx, the same transactional
// insert-with-ON-CONFLICT shape the teacher used for tx_heuristics
// (internal/db/postgres.go's SaveAnalysisResult), generalized from a
// heuristics row to a receipt row keyed by (room_id, target_id).
type PostgresSink struct {
	pool *pgxpool.Pool
}

// ConnectPostgresSink opens a pool and pings it once so construction fails
// fast rather than on the first receipt write.
func ConnectPostgresSink(ctx context.Context, connStr string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("audit: unable to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("audit: ping failed: %w", err)
	}
	log.Println("[Audit] connected to PostgreSQL receipt store")
	return &PostgresSink{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the receipts table if it does not already exist. A
// room-scoped hash chain only needs one append-only table.
func (s *PostgresSink) InitSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS kill_receipts (
	room_id           TEXT NOT NULL,
	target_id         BIGINT NOT NULL,
	reward_fp         BIGINT NOT NULL,
	rules_hash        BYTEA NOT NULL,
	rules_version     INT NOT NULL,
	seed_commitment   BYTEA NOT NULL,
	prev_receipt_hash BYTEA NOT NULL,
	receipt_hash      BYTEA NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (room_id, target_id, receipt_hash)
);`
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("audit: schema init failed: %w", err)
	}
	return nil
}

// WriteReceipt persists one receipt and its derived chain hash.
func (s *PostgresSink) WriteReceipt(ctx context.Context, roomID string, r Receipt) error {
	const insert = `
INSERT INTO kill_receipts
	(room_id, target_id, reward_fp, rules_hash, rules_version, seed_commitment, prev_receipt_hash, receipt_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (room_id, target_id, receipt_hash) DO NOTHING;`

	hash := r.Hash()
	_, err := s.pool.Exec(ctx, insert,
		roomID, r.TargetID, r.RewardFP,
		r.RulesHash[:], r.RulesVersion, r.SeedCommitment[:], r.PrevReceiptHash[:], hash[:])
	if err != nil {
		return fmt.Errorf("audit: failed to insert kill_receipts: %w", err)
	}
	return nil
}
