package contactrepo

import (
	"context"
	"errors"

	"github.com/6431503106/brselab/model"
	"github.com/6431503106/brselab/util/database"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("message not found")

type Repo interface {
	Create(ctx context.Context, m *model.ContactMessage) error
	ByID(ctx context.Context, id int64) (*model.ContactMessage, error)
	ListUnread(ctx context.Context) ([]model.ContactMessage, error)
	MarkRead(ctx context.Context, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, m *model.ContactMessage) error {
	m.Status = model.MessageUnread
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO contact_messages(name, email, message)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`,
		m.Name, m.Email, m.Message,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	m := &model.ContactMessage{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, email, message, status, created_at
		FROM contact_messages WHERE id=$1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) ListUnread(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, email, message, status, created_at
		FROM contact_messages WHERE status='unread' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) MarkRead(ctx context.Context, id int64) error {
	ct, err := r.db.Pool.Exec(ctx,
		`UPDATE contact_messages SET status='read' WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
