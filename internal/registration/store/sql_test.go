package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"accueil/internal/registration/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type SQLiteSuite struct {
	contractSuite
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) SetupTest() {
	s.ctx = context.Background()
	st := NewSQL(newTestDB(s.T()), DialectSQLite)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	s.advance = func(d time.Duration) { now = now.Add(d) }
	s.store = st
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "")
	require.Error(t, err)
}

func TestScanRecordNullText(t *testing.T) {
	db := newTestDB(t)
	row := db.QueryRowContext(context.Background(), `SELECT
		'rec-1', 'Dupont', NULL, NULL, NULL, NULL, NULL, NULL, NULL,
		1, NULL, NULL, '2025-03-10T09:00:00Z'`)

	rec, err := scanRecord(row)
	require.NoError(t, err)
	require.Equal(t, "rec-1", rec.ID)
	require.Equal(t, "Dupont", rec.LastName)
	require.Empty(t, rec.FirstName)
	require.Empty(t, rec.Email)
	require.Empty(t, rec.OriginChurch)
	require.Empty(t, rec.Discovery)
	require.Equal(t, models.FlagOf(boolPtr(true)), rec.Baptized)
	require.Equal(t, models.FlagOf(nil), rec.Visiting)
	require.True(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Equal(rec.CreatedAt))
}

func boolPtr(b bool) *bool { return &b }

func TestDBTimeScan(t *testing.T) {
	want := time.Date(2025, 3, 10, 9, 30, 15, 120000000, time.UTC)
	cases := map[string]any{
		"native":   want.In(time.FixedZone("CET", 3600)),
		"fixed":    want.Format(sqliteTimeLayout),
		"rfc3339":  want.Format(time.RFC3339Nano),
		"as bytes": []byte(want.Format(sqliteTimeLayout)),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			var got dbTime
			require.NoError(t, got.Scan(src))
			require.True(t, want.Equal(time.Time(got)))
		})
	}

	var bad dbTime
	require.Error(t, bad.Scan(42))
	require.Error(t, bad.Scan("yesterday"))
}
