package productrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/6431503106/brselab/model"
	"github.com/6431503106/brselab/util/database"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrAlreadyReviewed = errors.New("product already reviewed")
)

type Filter struct {
	Keyword    string
	CategoryID int64
}

type Repo interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int64) error
	ByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f Filter) ([]model.Product, error)
	AddReview(ctx context.Context, r *model.ProductReview) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, p *model.Product) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO products(user_id, name, image, brand, category_id, description, count_in_stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.Name, p.Image, p.Brand, p.CategoryID, p.Description, p.CountInStock,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, p *model.Product) error {
	ct, err := r.db.Pool.Exec(ctx, `
		UPDATE products
		SET name=$2, image=$3, brand=$4, category_id=$5, description=$6,
			count_in_stock=$7, updated_at=NOW()
		WHERE id=$1`,
		p.ID, p.Name, p.Image, p.Brand, p.CategoryID, p.Description, p.CountInStock,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT p.id, COALESCE(p.user_id, 0), p.name, p.image, p.brand, p.category_id,
			c.name, p.description, p.rating, p.num_reviews, p.count_in_stock,
			p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Image, &p.Brand, &p.CategoryID,
		&p.CategoryName, &p.Description, &p.Rating, &p.NumReviews, &p.CountInStock,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Product, error) {
	q := `
		SELECT p.id, COALESCE(p.user_id, 0), p.name, p.image, p.brand, p.category_id,
			c.name, p.description, p.rating, p.num_reviews, p.count_in_stock,
			p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		AND ($2 = 0 OR p.category_id = $2)
		ORDER BY p.id`
	rows, err := r.db.Pool.Query(ctx, q, f.Keyword, f.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Image, &p.Brand, &p.CategoryID,
			&p.CategoryName, &p.Description, &p.Rating, &p.NumReviews, &p.CountInStock,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddReview inserts the review and recomputes the product's rating
// aggregates in the same transaction.
func (r *repo) AddReview(ctx context.Context, rv *model.ProductReview) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM product_reviews WHERE product_id=$1 AND user_id=$2)`,
		rv.ProductID, rv.UserID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReviewed
	}

	// Reviewer name is denormalized from the users table at write time.
	err = tx.QueryRow(ctx, `
		INSERT INTO product_reviews(product_id, user_id, name, rating, comment)
		SELECT $1, $2, u.name, $3, $4 FROM users u WHERE u.id = $2
		RETURNING id, name, created_at`,
		rv.ProductID, rv.UserID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.Name, &rv.CreatedAt)
	if err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE products p
		SET num_reviews = s.n, rating = s.avg, updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS n, AVG(rating)::double precision AS avg
			FROM product_reviews WHERE product_id = $1
		) s
		WHERE p.id = $1`, rv.ProductID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("recompute rating: %w", ErrNotFound)
	}
	return tx.Commit(ctx)
}
