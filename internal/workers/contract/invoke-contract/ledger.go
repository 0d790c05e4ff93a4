// internal/workers/contract/invoke-contract/ledger.go
package invokecontract

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agentkit-workers/internal/common/database"
	"agentkit-workers/internal/models"
)

// Ledger keeps a durable trail of invocations and their outcome.
type Ledger interface {
	Record(ctx context.Context, inv *models.Invocation) error
	Update(ctx context.Context, inv *models.Invocation) error
}

var ErrInvocationNotFound = errors.New("invocation not found")

const schemaDDL = `
CREATE TABLE IF NOT EXISTS contract_invocations (
	id               TEXT PRIMARY KEY,
	wallet_id        TEXT NOT NULL,
	contract_address TEXT NOT NULL,
	method           TEXT NOT NULL,
	args             JSONB NOT NULL,
	tx_hash          TEXT,
	status           TEXT NOT NULL,
	block_number     BIGINT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresLedger struct {
	db *database.PostgresClient
}

func NewPostgresLedger(db *database.PostgresClient) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create contract_invocations: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Record(ctx context.Context, inv *models.Invocation) error {
	args, err := json.Marshal(inv.Args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	_, err = l.db.Exec(ctx, `
		INSERT INTO contract_invocations
			(id, wallet_id, contract_address, method, args, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.WalletID, inv.ContractAddress, inv.Method, string(args), inv.Status, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invocation %s: %w", inv.ID, err)
	}
	return nil
}

func (l *PostgresLedger) Update(ctx context.Context, inv *models.Invocation) error {
	res, err := l.db.Exec(ctx, `
		UPDATE contract_invocations
		SET tx_hash = $2, status = $3, block_number = $4, updated_at = NOW()
		WHERE id = $1`,
		inv.ID, nullString(inv.TxHash), inv.Status, nullBlock(inv.BlockNumber))
	if err != nil {
		return fmt.Errorf("update invocation %s: %w", inv.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update invocation %s: %w", inv.ID, ErrInvocationNotFound)
	}
	return nil
}

func (l *PostgresLedger) Get(ctx context.Context, id string) (*models.Invocation, error) {
	var (
		inv     models.Invocation
		args    []byte
		txHash  sql.NullString
		blockNo sql.NullInt64
	)
	err := l.db.QueryRow(ctx, `
		SELECT id, wallet_id, contract_address, method, args, tx_hash, status, block_number, created_at
		FROM contract_invocations
		WHERE id = $1`, id).Scan(
		&inv.ID, &inv.WalletID, &inv.ContractAddress, &inv.Method,
		&args, &txHash, &inv.Status, &blockNo, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select invocation %s: %w", id, err)
	}
	if err := json.Unmarshal(args, &inv.Args); err != nil {
		return nil, fmt.Errorf("decode args of %s: %w", id, err)
	}
	inv.TxHash = txHash.String
	if blockNo.Valid {
		inv.BlockNumber = uint64(blockNo.Int64)
	}
	return &inv, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBlock(n uint64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}
