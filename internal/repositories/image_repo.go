package repositories

import (
	"context"

	"iconforge/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the pgx querier surface shared by *pgxpool.Pool and the pgxmock
// pool used in tests.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error)
	ListPublic(ctx context.Context, limit int) ([]*models.Image, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Image, error)
	LatestByOwner(ctx context.Context, ownerID string) (*models.Image, error)
	SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*models.Image, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
}

type imageRepo struct {
	db Database
}

func NewImageRepo(db Database) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Create(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO images (id, owner_id, prompt, url, hidden, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, image.ID, image.OwnerID, image.Prompt, image.URL, image.Hidden)
	return err
}

func (r *imageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	image := &models.Image{}
	query := `
		SELECT id, owner_id, prompt, url, hidden, created_at
		FROM images
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&image.ID, &image.OwnerID, &image.Prompt, &image.URL, &image.Hidden, &image.CreatedAt)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *imageRepo) ListPublic(ctx context.Context, limit int) ([]*models.Image, error) {
	query := `
		SELECT id, owner_id, prompt, url, hidden, created_at
		FROM images
		WHERE hidden = false
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanImages(rows)
}

func (r *imageRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Image, error) {
	query := `
		SELECT id, owner_id, prompt, url, hidden, created_at
		FROM images
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanImages(rows)
}

func (r *imageRepo) LatestByOwner(ctx context.Context, ownerID string) (*models.Image, error) {
	image := &models.Image{}
	query := `
		SELECT id, owner_id, prompt, url, hidden, created_at
		FROM images
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, ownerID).Scan(&image.ID, &image.OwnerID, &image.Prompt, &image.URL, &image.Hidden, &image.CreatedAt)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *imageRepo) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*models.Image, error) {
	image := &models.Image{}
	query := `
		UPDATE images
		SET hidden = $1
		WHERE id = $2
		RETURNING id, owner_id, prompt, url, hidden, created_at
	`
	err := r.db.QueryRow(ctx, query, hidden, id).Scan(&image.ID, &image.OwnerID, &image.Prompt, &image.URL, &image.Hidden, &image.CreatedAt)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *imageRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM images WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *imageRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM images WHERE url = $1)`
	err := r.db.QueryRow(ctx, query, url).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func scanImages(rows pgx.Rows) ([]*models.Image, error) {
	var images []*models.Image
	for rows.Next() {
		image := &models.Image{}
		if err := rows.Scan(&image.ID, &image.OwnerID, &image.Prompt, &image.URL, &image.Hidden, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}
