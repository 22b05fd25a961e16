package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
)

type productRepository struct {
	*BaseRepository
}

func NewProductRepository(base *BaseRepository) repository.ProductRepository {
	return &productRepository{BaseRepository: base}
}

const productColumns = `
	id, name, quantity, expiration_date, rh_days_before,
	rh_date, status, user_id, created_at, updated_at
`

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (
			id, name, quantity, expiration_date, rh_days_before,
			rh_date, status, user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	product.ID = uuid.New()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Quantity,
		product.ExpirationDate,
		product.RHDaysBefore,
		product.RHDate,
		product.Status,
		product.UserID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product model.Product
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *productRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND user_id = $2`

	var product model.Product
	err := r.db.GetContext(ctx, &product, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products
		SET name = $1, quantity = $2, expiration_date = $3, rh_days_before = $4,
			rh_date = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	product.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Quantity,
		product.ExpirationDate,
		product.RHDaysBefore,
		product.RHDate,
		product.Status,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error {
	query := `UPDATE products SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filters *model.ProductFilters) ([]*model.Product, int64, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{filters.UserID}
	argCount := 2

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY status ASC, expiration_date ASC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)

	products := []*model.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *productRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 ORDER BY expiration_date ASC`

	products := []*model.Product{}
	if err := r.db.SelectContext(ctx, &products, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

const sweepColumns = `
	p.id, p.name, p.quantity, p.expiration_date, p.rh_days_before,
	p.rh_date, p.status, p.user_id, p.created_at, p.updated_at,
	u.whatsapp AS owner_whatsapp
`

func (r *productRepository) ListForSweep(ctx context.Context) ([]*model.ProductWithOwner, error) {
	query := `
		SELECT ` + sweepColumns + `
		FROM products p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.expiration_date ASC
	`
	products := []*model.ProductWithOwner{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products for sweep: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListForSweepByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.ProductWithOwner, error) {
	query := `
		SELECT ` + sweepColumns + `
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.expiration_date ASC
	`
	products := []*model.ProductWithOwner{}
	if err := r.db.SelectContext(ctx, &products, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list products for sweep: %w", err)
	}
	return products, nil
}

func (r *productRepository) CountByStatus(ctx context.Context, status model.ProductStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE status = $1`, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by status: %w", err)
	}
	return count, nil
}
