package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// PaymentRow mirrors one row of the payments table.
type PaymentRow struct {
	ID               string
	ServiceDate      string
	AmountCents      int64
	ServiceCompleted int64
	PaymentStatus    string
	PaymentDate      sql.NullString
	Note             string
	ClientName       string
	CreatedAt        string
	UpdatedAt        string
}

const paymentColumns = `id, service_date, amount_cents, service_completed, payment_status, payment_date, note, client_name, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (PaymentRow, error) {
	var i PaymentRow
	err := row.Scan(
		&i.ID,
		&i.ServiceDate,
		&i.AmountCents,
		&i.ServiceCompleted,
		&i.PaymentStatus,
		&i.PaymentDate,
		&i.Note,
		&i.ClientName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertPayment = `-- name: InsertPayment :exec
INSERT INTO payments (` + paymentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertPayment(ctx context.Context, arg PaymentRow) error {
	_, err := q.db.ExecContext(ctx, insertPayment,
		arg.ID,
		arg.ServiceDate,
		arg.AmountCents,
		arg.ServiceCompleted,
		arg.PaymentStatus,
		arg.PaymentDate,
		arg.Note,
		arg.ClientName,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPayment = `-- name: GetPayment :one
SELECT ` + paymentColumns + ` FROM payments WHERE id = ?
`

func (q *Queries) GetPayment(ctx context.Context, id string) (PaymentRow, error) {
	return scanPayment(q.db.QueryRowContext(ctx, getPayment, id))
}

const updatePayment = `-- name: UpdatePayment :execrows
UPDATE payments
SET service_date = ?, amount_cents = ?, service_completed = ?, payment_status = ?,
    payment_date = ?, note = ?, client_name = ?, updated_at = ?
WHERE id = ?
`

func (q *Queries) UpdatePayment(ctx context.Context, arg PaymentRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePayment,
		arg.ServiceDate,
		arg.AmountCents,
		arg.ServiceCompleted,
		arg.PaymentStatus,
		arg.PaymentDate,
		arg.Note,
		arg.ClientName,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePayment = `-- name: DeletePayment :execrows
DELETE FROM payments WHERE id = ?
`

func (q *Queries) DeletePayment(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPayments = `-- name: ListPayments :many
SELECT ` + paymentColumns + ` FROM payments
WHERE (? = '' OR service_date >= ?)
  AND (? = '' OR service_date <= ?)
ORDER BY service_date ASC, created_at ASC, id ASC
`

type ListPaymentsParams struct {
	From string // YYYY-MM-DD or empty
	To   string
}

func (q *Queries) ListPayments(ctx context.Context, arg ListPaymentsParams) ([]PaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, listPayments, arg.From, arg.From, arg.To, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentRow
	for rows.Next() {
		i, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
