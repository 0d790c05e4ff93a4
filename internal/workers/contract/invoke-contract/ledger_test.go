package invokecontract

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/internal/common/database"
	"agentkit-workers/internal/models"
)

func newLedger(t *testing.T) (*PostgresLedger, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresLedger(database.NewPostgresFromDB(db)), mock
}

func TestPostgresLedger_EnsureSchema(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS contract_invocations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ledger.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_RecordEncodesArgs(t *testing.T) {
	ledger, mock := newLedger(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contract_invocations")).
		WithArgs("inv-1", "w-1", contractAddress, "mint", `{"tokenId":"1"}`, models.InvocationPending, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := ledger.Record(context.Background(), &models.Invocation{
		ID:              "inv-1",
		WalletID:        "w-1",
		ContractAddress: contractAddress,
		Method:          "mint",
		Args:            map[string]interface{}{"tokenId": "1"},
		Status:          models.InvocationPending,
		CreatedAt:       created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_UpdateUnknownID(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contract_invocations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.Update(context.Background(), &models.Invocation{ID: "nope", Status: models.InvocationFailed})
	assert.ErrorIs(t, err, ErrInvocationNotFound)
}

func TestPostgresLedger_Get(t *testing.T) {
	ledger, mock := newLedger(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "wallet_id", "contract_address", "method", "args", "tx_hash", "status", "block_number", "created_at",
	}).AddRow("inv-1", "w-1", contractAddress, "mint", []byte(`{"tokenId":"1"}`), "0xabc", models.InvocationConfirmed, int64(42), created)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, wallet_id")).WithArgs("inv-1").WillReturnRows(rows)

	inv, err := ledger.Get(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", inv.TxHash)
	assert.Equal(t, uint64(42), inv.BlockNumber)
	assert.Equal(t, "1", inv.Args["tokenId"])

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, wallet_id")).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = ledger.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvocationNotFound)
}
