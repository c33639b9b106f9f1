package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// LedgerEntry records one fulfilled order.
type LedgerEntry struct {
	Session   string
	Slot      int16
	OrderID   string
	Kind      string
	Quantity  int32
	Reward    int32
	EquipItem string
	CreatedAt time.Time
}

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// WriteBatch inserts entries in a single transaction. Either all rows land
// or none do, so the caller can safely retry the whole batch.
func (r *LedgerRepo) WriteBatch(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_ledger (session_id, slot, order_id, kind_id, quantity, reward, equip_item, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.Session, e.Slot, e.OrderID, e.Kind, e.Quantity, e.Reward, e.EquipItem, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// SessionTotal returns the number of orders and coins recorded for a session.
func (r *LedgerRepo) SessionTotal(ctx context.Context, session string) (orders int64, coins int64, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(reward), 0) FROM order_ledger WHERE session_id = $1`, session,
	).Scan(&orders, &coins)
	return orders, coins, err
}

// Recent returns the latest entries across all sessions, newest first.
func (r *LedgerRepo) Recent(ctx context.Context, limit int) ([]LedgerEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT session_id, slot, order_id, kind_id, quantity, reward, equip_item, created_at
		 FROM order_ledger ORDER BY created_at DESC, id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// scanLedgerEntry reads one row in the column order of Recent.
func scanLedgerEntry(row pgx.Row) (LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(
		&e.Session, &e.Slot, &e.OrderID, &e.Kind,
		&e.Quantity, &e.Reward, &e.EquipItem, &e.CreatedAt,
	)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	return e, nil
}
