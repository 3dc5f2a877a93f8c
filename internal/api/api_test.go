package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/contentdb/internal/database"
	"github.com/yanizio/contentdb/internal/requestinfo"
	"github.com/yanizio/contentdb/internal/uuid"
)

type fakeResolver struct {
	calls []int
	u     *uuid.Uuid
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, id int) (*uuid.Uuid, error) {
	f.calls = append(f.calls, id)
	return f.u, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUUID_RejectsNonPositiveIDsWithoutResolving(t *testing.T) {
	res := &fakeResolver{}
	h := NewRouter(res, fakePinger{}, nil)

	for _, path := range []string{"/uuid/abc", "/uuid/0", "/uuid/-4", "/uuid/007", "/uuid/99999999999999999999999", "/uuid/"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}
	assert.Empty(t, res.calls)
}

func TestUUID_Success(t *testing.T) {
	res := &fakeResolver{u: &uuid.Uuid{
		ID:       9,
		Alias:    "/user/9/ada",
		Concrete: uuid.User{Username: "ada", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	h := NewRouter(res, fakePinger{}, nil)

	rec := get(t, h, "/uuid/9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, []int{9}, res.calls)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "User", body["__typename"])
	assert.Equal(t, "ada", body["username"])
}

func TestUUID_FailuresAreEmpty404(t *testing.T) {
	for name, err := range map[string]error{
		"not found": uuid.ErrNotFound,
		"invalid":   uuid.ErrInvalidDiscriminator,
		"store":     &uuid.StoreError{Op: "uuid", ID: 4, Err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewRouter(&fakeResolver{err: err}, fakePinger{}, nil)
			rec := get(t, h, "/uuid/4")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestHealthz(t *testing.T) {
	ok := get(t, NewRouter(&fakeResolver{}, fakePinger{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "ok", ok.Body.String())

	down := get(t, NewRouter(&fakeResolver{}, fakePinger{err: errors.New("down")}, nil), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	enricher, err := requestinfo.New("")
	require.NoError(t, err)
	h := NewRouter(&fakeResolver{err: uuid.ErrNotFound}, fakePinger{}, enricher)

	get(t, h, "/uuid/1")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), `route="/uuid/{id:[1-9][0-9]*}"`)
}

// End to end through a real engine over sqlmock.
func TestUUID_EngineOverSqlmock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db := sqlx.NewDb(sqlDB, "mysql")

	mock.ExpectQuery(`^SELECT discriminator FROM uuid WHERE id = \?$`).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}).AddRow("user"))
	mock.ExpectQuery(`FROM user us JOIN uuid u`).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"trashed", "username", "date", "last_login", "description"}).
			AddRow(int64(0), "ada", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil))
	mock.ExpectQuery(`^SELECT discriminator FROM uuid WHERE id = \?$`).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}))

	engine := uuid.New(database.NewPool(db), uuid.Options{})
	h := NewRouter(engine, db, nil)

	rec := get(t, h, "/uuid/9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"__typename": "User", "id": 9, "trashed": false, "alias": "/user/9/ada",
		"username": "ada", "date": "2020-01-01T00:00:00Z", "lastLogin": null, "description": null
	}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/uuid/10").Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
