package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"accueil/internal/registration/models"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore persists records in a users_data table through database/sql.
type SQLStore struct {
	db      *sql.DB
	sq      sq.StatementBuilderType
	dialect Dialect
	now     func() time.Time
}

// NewSQL wraps an open, migrated database.
func NewSQL(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		sq:      sq.StatementBuilder.PlaceholderFormat(dialect.placeholders()),
		dialect: dialect,
		now:     time.Now,
	}
}

func (s *SQLStore) timeArg(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (s *SQLStore) Create(ctx context.Context, rec models.Record) (*models.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	query, args, err := s.sq.Insert(Table).
		Columns(columns...).
		Values(
			rec.ID,
			rec.LastName,
			rec.FirstName,
			rec.Nationality,
			rec.Profession,
			rec.Phone,
			rec.Email,
			rec.Neighborhood,
			rec.OriginChurch,
			rec.Baptized.Bool(),
			rec.Visiting.Bool(),
			rec.Discovery,
			s.timeArg(rec.CreatedAt),
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &rec, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	query, args, err := s.sq.Select(columns...).From(Table).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, rec models.Record) (*models.Record, error) {
	query, args, err := s.sq.Update(Table).
		SetMap(map[string]any{
			"nom":          rec.LastName,
			"prenom":       rec.FirstName,
			"nationalite":  rec.Nationality,
			"profession":   rec.Profession,
			"telephone":    rec.Phone,
			"email":        rec.Email,
			"quartier":     rec.Neighborhood,
			"eglise":       rec.OriginChurch,
			"baptise":      rec.Baptized.Bool(),
			"passage":      rec.Visiting.Bool(),
			"connaissance": rec.Discovery,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	return s.FindByID(ctx, id)
}

func (s *SQLStore) ListRecent(ctx context.Context, limit int) ([]*models.Record, error) {
	return s.list(ctx, s.sq.Select(columns...).From(Table), limit)
}

func (s *SQLStore) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.Record, error) {
	q := s.sq.Select(columns...).From(Table).Where(sq.GtOrEq{"created_at": s.timeArg(since)})
	return s.list(ctx, q, limit)
}

func (s *SQLStore) list(ctx context.Context, q sq.SelectBuilder, limit int) ([]*models.Record, error) {
	q = q.OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec       models.Record
		text      [9]sql.NullString
		baptized  sql.NullBool
		visiting  sql.NullBool
		createdAt dbTime
	)
	if err := row.Scan(
		&rec.ID,
		&text[0],
		&text[1],
		&text[2],
		&text[3],
		&text[4],
		&text[5],
		&text[6],
		&text[7],
		&baptized,
		&visiting,
		&text[8],
		&createdAt,
	); err != nil {
		return nil, err
	}
	// NULL text reads as empty, like a field left blank on the form.
	for i, dst := range []*string{
		&rec.LastName,
		&rec.FirstName,
		&rec.Nationality,
		&rec.Profession,
		&rec.Phone,
		&rec.Email,
		&rec.Neighborhood,
		&rec.OriginChurch,
		&rec.Discovery,
	} {
		*dst = text[i].String
	}
	rec.Baptized = models.FlagOf(nullBoolPtr(baptized))
	rec.Visiting = models.FlagOf(nullBoolPtr(visiting))
	rec.CreatedAt = time.Time(createdAt)
	return &rec, nil
}

func nullBoolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

// dbTime scans timestamps stored natively (Postgres) or as text (SQLite).
type dbTime time.Time

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = dbTime(v.UTC())
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = dbTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
