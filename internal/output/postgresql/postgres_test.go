package postgresql

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/tealcounter/internal/models"
)

func newMock(t *testing.T) (*PostgresOutputHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestWriteDeployment(t *testing.T) {
	h, mock := newMock(t)
	d := &models.Deployment{AppID: 77, AppAddress: "APPADDR", Creator: "CREATOR", TxID: "TX", ConfirmedRound: 12, InitialValue: 15}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO deployments")).
		WithArgs(d.AppID, d.AppAddress, d.Creator, d.TxID, d.ConfirmedRound, d.InitialValue, false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, h.WriteDeployment(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteCall(t *testing.T) {
	h, mock := newMock(t)
	c := &models.Call{AppID: 77, Sender: "CREATOR", Method: "increment", TxID: "TX2", ConfirmedRound: 13}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO calls")).
		WithArgs(c.TxID, c.AppID, c.Sender, c.Method, c.ConfirmedRound).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, h.WriteCall(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteVerificationError(t *testing.T) {
	h, mock := newMock(t)
	dbErr := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verifications")).
		WithArgs("transaction", "TX", false, "mismatch").
		WillReturnError(dbErr)

	err := h.WriteVerification(context.Background(), &models.Verification{Kind: "transaction", Target: "TX", Detail: "mismatch"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestDeployment(t *testing.T) {
	h, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"app_id", "app_address", "creator", "tx_id", "confirmed_round", "initial_value", "deleted"}).
		AddRow(int64(78), "APPADDR", "CREATOR", "TX", int64(20), int64(0), false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT app_id, app_address")).
		WithArgs("CREATOR").
		WillReturnRows(rows)

	d, err := h.GetLatestDeployment(context.Background(), "CREATOR")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, uint64(78), d.AppID)
	assert.Equal(t, uint64(20), d.ConfirmedRound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestDeploymentNone(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT app_id, app_address")).
		WithArgs("NOBODY").
		WillReturnRows(sqlmock.NewRows([]string{"app_id"}))

	d, err := h.GetLatestDeployment(context.Background(), "NOBODY")
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDeleted(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE deployments SET deleted = TRUE")).
		WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, h.MarkDeleted(context.Background(), 77))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	h, mock := newMock(t)
	mock.ExpectClose()
	require.NoError(t, h.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_history.up.sql")
	assert.Contains(t, names, "000001_history.down.sql")
}
