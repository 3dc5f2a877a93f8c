// internal/uuid/engine_test.go
//
// Engine behaviour against sqlmock.
//
// Context
// -------
// These tests pin the observable contract of one resolution:
//
//   • unknown ids are ErrNotFound after the lookup alone,
//   • unknown tags are ErrInvalidDiscriminator,
//   • pool, snapshot, and caller-transaction modes return identical JSON,
//   • an owned transaction is rolled back when a later query fails or the
//     request is cancelled, and
//   • a caller's transaction is never committed by the engine.
//
// Run: go test ./internal/uuid -v

package uuid

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/contentdb/internal/database"
)

func TestResolve_NotFound(t *testing.T) {
	db, mock := newMock(t, true)
	mock.ExpectQuery(qLookup).WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}))

	_, err := New(database.NewPool(db), Options{}).Resolve(context.Background(), 404)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "not_found", Outcome(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_InvalidDiscriminator(t *testing.T) {
	db, mock := newMock(t, true)
	expectLookup(mock, 7, "widget")

	_, err := New(database.NewPool(db), Options{}).Resolve(context.Background(), 7)

	require.ErrorIs(t, err, ErrInvalidDiscriminator)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_StoreErrorIsWrapped(t *testing.T) {
	db, mock := newMock(t, true)
	boom := errors.New("connection reset")
	mock.ExpectQuery(qLookup).WithArgs(8).WillReturnError(boom)

	_, err := New(database.NewPool(db), Options{}).Resolve(context.Background(), 8)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "store_error", Outcome(err))
}

func TestResolve_CrossModeEquivalence(t *testing.T) {
	fixture := commentFixture{id: 4, title: "Reply", parentTitle: "Intro", children: []int{5, 6, 7}}
	ctx := context.Background()

	// Pool: sub-queries race.
	poolDB, poolMock := newMock(t, false)
	expectLookup(poolMock, 4, "comment")
	expectComment(poolMock, fixture)
	pooled, err := New(database.NewPool(poolDB), Options{}).Resolve(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, poolMock.ExpectationsWereMet())

	// Snapshot: engine-owned transaction.
	snapDB, snapMock := newMock(t, true)
	snapMock.ExpectBegin()
	expectLookup(snapMock, 4, "comment")
	expectComment(snapMock, fixture)
	snapMock.ExpectCommit()
	snap, err := New(database.NewPool(snapDB), Options{Consistency: ConsistencySnapshot}).Resolve(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, snapMock.ExpectationsWereMet())

	// Caller transaction.
	txDB, txMock := newMock(t, true)
	txMock.ExpectBegin()
	expectLookup(txMock, 4, "comment")
	expectComment(txMock, fixture)
	txMock.ExpectCommit()
	tx, err := txDB.Beginx()
	require.NoError(t, err)
	inTx, err := New(database.NewPool(txDB), Options{}).ResolveTx(ctx, 4, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, txMock.ExpectationsWereMet())

	a, err := json.Marshal(pooled)
	require.NoError(t, err)
	b, err := json.Marshal(snap)
	require.NoError(t, err)
	c, err := json.Marshal(inTx)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, string(a), string(c))
}

func TestResolveTx_LeavesCallerTransactionOpen(t *testing.T) {
	db, mock := newMock(t, true)
	mock.ExpectBegin()
	expectLookup(mock, 4, "comment")
	expectComment(mock, commentFixture{id: 4, title: "Reply"})
	// The caller keeps using its transaction afterwards.
	mock.ExpectQuery(qLookup).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}).AddRow("comment"))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	_, err = New(database.NewPool(db), Options{}).ResolveTx(context.Background(), 4, tx)
	require.NoError(t, err)

	var raw string
	require.NoError(t, tx.Get(&raw, `SELECT discriminator FROM uuid WHERE id = ?`, 5))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveTx_FailureDoesNotRollBackCallerTransaction(t *testing.T) {
	db, mock := newMock(t, true)
	mock.ExpectBegin()
	mock.ExpectQuery(qLookup).WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)

	_, err = New(database.NewPool(db), Options{}).ResolveTx(context.Background(), 404, tx)
	require.ErrorIs(t, err, ErrNotFound)

	// Only the caller's own Rollback reaches the store.
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_SnapshotRollsBackWhenSecondQueryFails(t *testing.T) {
	db, mock := newMock(t, true)
	boom := errors.New("lock wait timeout")

	mock.ExpectBegin()
	expectLookup(mock, 4, "comment")
	mock.ExpectQuery(qCommentRow).WithArgs(4).WillReturnError(boom)
	mock.ExpectRollback()
	// An independent read afterwards must get the single connection back.
	expectLookup(mock, 9, "user")

	engine := New(database.NewPool(db), Options{Consistency: ConsistencySnapshot})
	_, err := engine.Resolve(context.Background(), 4)
	require.ErrorIs(t, err, boom)

	var se *StoreError
	require.ErrorAs(t, err, &se)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var raw string
	require.NoError(t, db.GetContext(ctx, &raw, `SELECT discriminator FROM uuid WHERE id = ?`, 9))
	assert.Equal(t, "user", raw)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_SnapshotRollsBackWhenCancelled(t *testing.T) {
	db, mock := newMock(t, true)
	mock.ExpectBegin()
	expectLookup(mock, 9, "user")
	mock.ExpectQuery(qUserRow).WithArgs(9).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{
			"trashed", "username", "date", "last_login", "description",
		}).AddRow(int64(0), "Jürgen", day, nil, nil))
	mock.ExpectRollback()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	u, err := New(database.NewPool(db), Options{Consistency: ConsistencySnapshot}).Resolve(ctx, 9)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, u)
	assert.Less(t, time.Since(start), time.Second)
	// database/sql may roll back from its own watcher goroutine.
	assert.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil },
		time.Second, 5*time.Millisecond)
}

func TestResolveTx_NilTransaction(t *testing.T) {
	db, mock := newMock(t, true)

	u, err := New(database.NewPool(db), Options{}).ResolveTx(context.Background(), 4, nil)

	require.ErrorIs(t, err, ErrNilTx)
	assert.Nil(t, u)
	assert.Equal(t, "store_error", Outcome(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_PageWithoutRevisionsIsNotFound(t *testing.T) {
	db, mock := newMock(t, true)
	mock.ExpectBegin()
	expectLookup(mock, 30, "page")
	mock.ExpectQuery(qPageRow).WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{
			"trashed", "subdomain", "current_revision_id", "license_id", "title",
		}).AddRow(int64(0), "de", nil, 1, nil))
	mock.ExpectQuery(qPageRevs).WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}))
	mock.ExpectRollback()

	engine := New(database.NewPool(db), Options{Consistency: ConsistencySnapshot})
	u, err := engine.Resolve(context.Background(), 30)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_PageRevisionsNewestFirst(t *testing.T) {
	db, mock := newMock(t, false)
	expectLookup(mock, 30, "page")
	mock.ExpectQuery(qPageRow).WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{
			"trashed", "subdomain", "current_revision_id", "license_id", "title",
		}).AddRow(int64(1), "de", 33, 1, "Über uns"))
	mock.ExpectQuery(qPageRevs).WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}).
			AddRow(31, day).
			AddRow(32, day.Add(time.Hour)).
			AddRow(33, day.Add(2*time.Hour)))

	u, err := New(database.NewPool(db), Options{}).Resolve(context.Background(), 30)
	require.NoError(t, err)

	page, ok := u.Concrete.(Page)
	require.True(t, ok, "concrete = %T", u.Concrete)
	assert.Equal(t, []int{33, 32, 31}, page.RevisionIDs)
	assert.Equal(t, day, page.Date)
	assert.Equal(t, "de", page.Instance)
	assert.True(t, u.Trashed)
	assert.Equal(t, "/30/ueber-uns", u.Alias)
	assert.Equal(t, DiscriminatorPage, u.Discriminator())
}

func TestResolve_DispatchCoversEveryDiscriminator(t *testing.T) {
	for _, d := range Discriminators() {
		if _, ok := kindResolvers[d]; !ok {
			t.Errorf("no kind resolver for %s", d)
		}
	}
	assert.Len(t, kindResolvers, len(Discriminators()))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "resolved", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(ErrNotFound))
	assert.Equal(t, "invalid_discriminator", Outcome(ErrInvalidDiscriminator))
	assert.Equal(t, "store_error", Outcome(&StoreError{Err: errors.New("x")}))
	assert.True(t, strings.HasPrefix((&StoreError{Op: "comment", ID: 1, Err: errors.New("x")}).Error(), "comment 1"))
}
