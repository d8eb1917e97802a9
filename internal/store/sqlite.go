package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore backs the single logical table on top of database/sql and
// mattn/go-sqlite3 — the same pairing the teacher module uses for its own
// relational storage (legacy/storage.go), generalized here from several
// typed tables to one wide `items` table emulating a composite-key store
// with the two secondary indexes spec.md §3 requires.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn and runs the single migration that creates the
// items table and its two indexes.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS items (
	pk TEXT NOT NULL,
	sk TEXT NOT NULL,
	gsi1pk TEXT NOT NULL DEFAULT '',
	gsi1sk TEXT NOT NULL DEFAULT '',
	start_ts INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 0,
	attrs TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (pk, sk)
);
CREATE INDEX IF NOT EXISTS idx_entity_time ON items(gsi1pk, start_ts);
CREATE INDEX IF NOT EXISTS idx_user_group ON items(gsi1pk, gsi1sk);
`
	_, err := s.db.Exec(schema)
	return err
}

func encodeAttrs(a map[string]any) (string, error) {
	if a == nil {
		a = map[string]any{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAttrs(raw string) (map[string]any, error) {
	var m map[string]any
	if raw == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var pk, sk, gsi1pk, gsi1sk, attrsRaw string
	var startTS, version int64
	if err := row.Scan(&pk, &sk, &gsi1pk, &gsi1sk, &startTS, &version, &attrsRaw); err != nil {
		return nil, err
	}
	attrs, err := decodeAttrs(attrsRaw)
	if err != nil {
		return nil, err
	}
	return &Item{
		PK: pk, SK: sk, GSI1PK: gsi1pk, GSI1SK: gsi1sk,
		StartTimestamp: startTS, Version: version, Attrs: attrs,
	}, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE pk=? AND sk=?`, pk, sk)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) Put(ctx context.Context, item Item, cond *Condition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := putWithinTx(tx, item, cond); err != nil {
		return err
	}
	return tx.Commit()
}

func putWithinTx(tx execer, item Item, cond *Condition) error {
	existing, err := getWithinTx(tx, item.PK, item.SK)
	if err != nil {
		return err
	}
	if !conditionHolds(cond, existing) {
		return ErrConditionFailed
	}
	attrsRaw, err := encodeAttrs(item.Attrs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO items(pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(pk,sk) DO UPDATE SET gsi1pk=excluded.gsi1pk, gsi1sk=excluded.gsi1sk,
			start_ts=excluded.start_ts, version=excluded.version, attrs=excluded.attrs`,
		item.PK, item.SK, item.GSI1PK, item.GSI1SK, item.StartTimestamp, item.Version, attrsRaw)
	return err
}

func getWithinTx(tx execer, pk, sk string) (*Item, error) {
	row := tx.QueryRow(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE pk=? AND sk=?`, pk, sk)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func conditionHolds(cond *Condition, existing *Item) bool {
	if cond == nil {
		return true
	}
	switch cond.Kind {
	case CondNone:
		return true
	case CondNotExists:
		return existing == nil
	case CondExists:
		return existing != nil
	case CondVersionEquals:
		return existing != nil && existing.Version == int64(cond.Value)
	case CondNumericGTE:
		if existing == nil {
			return false
		}
		cur, _ := existing.Attrs[cond.Field].(float64)
		return cur >= cond.Value
	default:
		return false
	}
}

func (s *SQLiteStore) Update(ctx context.Context, pk, sk string, upd Update, cond *Condition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := updateWithinTx(tx, pk, sk, upd, cond); err != nil {
		return err
	}
	return tx.Commit()
}

func updateWithinTx(tx execer, pk, sk string, upd Update, cond *Condition) error {
	existing, err := getWithinTx(tx, pk, sk)
	if err != nil {
		return err
	}
	if !conditionHolds(cond, existing) {
		return ErrConditionFailed
	}
	if existing == nil {
		return ErrConditionFailed
	}
	attrs := existing.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	for k, v := range upd.Set {
		attrs[k] = v
	}
	for k, delta := range upd.Add {
		cur, _ := attrs[k].(float64)
		attrs[k] = cur + delta
	}
	version := existing.Version
	if upd.IncrementVersion {
		version++
	}
	attrsRaw, err := encodeAttrs(attrs)
	if err != nil {
		return err
	}
	gsi1pk, gsi1sk, startTS := existing.GSI1PK, existing.GSI1SK, existing.StartTimestamp
	if v, ok := upd.Set["gsi1pk"].(string); ok {
		gsi1pk = v
	}
	if v, ok := upd.Set["gsi1sk"].(string); ok {
		gsi1sk = v
	}
	if v, ok := upd.Set["startTimestamp"].(float64); ok {
		startTS = int64(v)
	}
	_, err = tx.Exec(`UPDATE items SET gsi1pk=?, gsi1sk=?, start_ts=?, version=?, attrs=? WHERE pk=? AND sk=?`,
		gsi1pk, gsi1sk, startTS, version, attrsRaw, pk, sk)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, pk, sk string, cond *Condition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteWithinTx(tx, pk, sk, cond); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteWithinTx(tx execer, pk, sk string, cond *Condition) error {
	existing, err := getWithinTx(tx, pk, sk)
	if err != nil {
		return err
	}
	if !conditionHolds(cond, existing) {
		return ErrConditionFailed
	}
	_, err = tx.Exec(`DELETE FROM items WHERE pk=? AND sk=?`, pk, sk)
	return err
}

func (s *SQLiteStore) Query(ctx context.Context, pk string, opts QueryOptions) (Page, error) {
	var rows *sql.Rows
	var err error
	order := "ASC"
	if opts.Reverse {
		order = "DESC"
	}
	if opts.SortPrefix != "" {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE pk=? AND sk LIKE ? ORDER BY sk %s`, order),
			pk, escapeLike(opts.SortPrefix)+"%")
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE pk=? ORDER BY sk %s`, order),
			pk)
	}
	if err != nil {
		return Page{}, fmt.Errorf("store: query: %w", err)
	}
	return collectPage(rows, opts.Limit)
}

func (s *SQLiteStore) QueryIndex(ctx context.Context, index Index, pk string, opts QueryOptions) (Page, error) {
	var rows *sql.Rows
	var err error
	order := "ASC"
	if opts.Reverse {
		order = "DESC"
	}
	switch index {
	case EntityTimeIndex:
		if opts.MinStartTimestamp != nil {
			rows, err = s.db.QueryContext(ctx,
				fmt.Sprintf(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE gsi1pk=? AND start_ts>? ORDER BY start_ts %s`, order),
				pk, *opts.MinStartTimestamp)
		} else {
			rows, err = s.db.QueryContext(ctx,
				fmt.Sprintf(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE gsi1pk=? ORDER BY start_ts %s`, order),
				pk)
		}
	case UserGroupIndex:
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT pk,sk,gsi1pk,gsi1sk,start_ts,version,attrs FROM items WHERE gsi1pk=? ORDER BY gsi1sk %s`, order),
			pk)
	default:
		return Page{}, fmt.Errorf("store: unknown index %q", index)
	}
	if err != nil {
		return Page{}, fmt.Errorf("store: query index: %w", err)
	}
	return collectPage(rows, opts.Limit)
}

func collectPage(rows *sql.Rows, limit int) (Page, error) {
	defer rows.Close()
	var page Page
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, *item)
		if limit > 0 && len(page.Items) >= limit {
			break
		}
	}
	return page, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// BatchWrite chunks items into groups of at most MaxBatchOps and writes
// each chunk in its own transaction (spec.md §4.2: "adapter auto-chunks").
// Chunks are independent: a failure in one does not roll back another,
// matching the best-effort cascade semantics spec.md §7/§9 describe.
func (s *SQLiteStore) BatchWrite(ctx context.Context, puts []Item, deletes []Key) error {
	for _, group := range chunk(puts, MaxBatchOps) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, item := range group {
			if err := putWithinTx(tx, item, nil); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	for _, group := range chunk(deletes, MaxBatchOps) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, k := range group {
			if _, err := tx.Exec(`DELETE FROM items WHERE pk=? AND sk=?`, k.PK, k.SK); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Transact applies ops as a single all-or-nothing unit (spec.md §4.2/§5):
// every op observes the same snapshot, and either all effects apply or
// none do. A failing condition aborts the whole batch and is reported via
// TransactionCanceledError with one reason per op.
func (s *SQLiteStore) Transact(ctx context.Context, ops []Op) error {
	if len(ops) > MaxBatchOps {
		return fmt.Errorf("store: transact: %d ops exceeds MaxBatchOps=%d", len(ops), MaxBatchOps)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reasons := make([]error, len(ops))
	failed := false
	for i, op := range ops {
		var opErr error
		switch op.Kind {
		case OpPut:
			opErr = putWithinTx(tx, op.Item, op.Condition)
		case OpUpdate:
			opErr = updateWithinTx(tx, op.PK, op.SK, op.Update, op.Condition)
		case OpDelete:
			opErr = deleteWithinTx(tx, op.PK, op.SK, op.Condition)
		}
		if opErr != nil {
			reasons[i] = opErr
			failed = true
		}
	}
	if failed {
		return &TransactionCanceledError{Reasons: reasons}
	}
	return tx.Commit()
}
