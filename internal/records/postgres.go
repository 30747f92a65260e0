package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresBackend keeps the table in the personnel_records table, one JSON
// object per row keyed by field name. Save replaces every row in a single
// transaction, mirroring the whole-file rewrite of the CSV backend.
type PostgresBackend struct {
	DB *sql.DB
}

// NewPostgresBackend returns a backend using db. The schema is expected to
// have been migrated.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{DB: db}
}

func (b *PostgresBackend) Load(ctx context.Context) (*Table, error) {
	rows, err := b.DB.QueryContext(ctx, `SELECT data FROM personnel_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	t := NewTable()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := decodeJSONRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", t.Len(), err)
		}
		t.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *PostgresBackend) Save(ctx context.Context, t *Table) error {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM personnel_records`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO personnel_records (position, data) VALUES ($1, $2)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range t.rows {
		raw, err := encodeJSONRecord(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, i, string(raw)); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.DB.PingContext(ctx)
}

func encodeJSONRecord(rec Record) ([]byte, error) {
	m := make(map[string]string, len(AllFields))
	for _, f := range AllFields {
		m[f.String()] = rec.Get(f)
	}
	return json.Marshal(m)
}

func decodeJSONRecord(raw []byte) (Record, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return Record{}, err
	}
	var rec Record
	for name, v := range m {
		if f, ok := FieldByName(name); ok {
			rec.Set(f, v)
		}
	}
	return rec, nil
}
