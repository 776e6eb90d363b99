// internal/images/repository.go

package images

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines the user_images data access
type Repository interface {
	// CreateMany inserts images in one transaction. When one of them is a
	// profile picture the user's previous profile picture is cleared.
	CreateMany(ctx context.Context, images []*Image) error
	GetByID(ctx context.Context, id int64) (*Image, error)
	List(ctx context.Context, filter *ListFilter) ([]*Image, int, error)
	Update(ctx context.Context, image *Image) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL image repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const imageColumns = `id, user_id, image_url, is_profile_picture, uploaded_at`

func (r *postgresRepository) CreateMany(ctx context.Context, images []*Image) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, img := range images {
			if img.IsProfilePicture {
				if err := clearProfilePicture(ctx, tx, img.UserID); err != nil {
					return err
				}
			}

			query := `
				INSERT INTO user_images (user_id, image_url, is_profile_picture)
				VALUES ($1, $2, $3)
				RETURNING id, uploaded_at`
			err := tx.QueryRowxContext(ctx, query, img.UserID, img.ImageURL, img.IsProfilePicture).
				Scan(&img.ID, &img.UploadedAt)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return ErrUserNotFound
				}
				return fmt.Errorf("failed to insert image: %w", err)
			}
		}
		return nil
	})
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Image, error) {
	var img Image
	err := r.db.GetContext(ctx, &img, `SELECT `+imageColumns+` FROM user_images WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Image, int, error) {
	where := "TRUE"
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = "user_id = $1"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_images WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM user_images WHERE %s
		ORDER BY is_profile_picture DESC, uploaded_at DESC LIMIT $%d OFFSET $%d`,
		imageColumns, where, len(args)-1, len(args))

	images := []*Image{}
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	return images, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, image *Image) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if image.IsProfilePicture {
			if err := clearProfilePicture(ctx, tx, image.UserID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE user_images SET image_url = $2, is_profile_picture = $3 WHERE id = $1`,
			image.ID, image.ImageURL, image.IsProfilePicture)
		if err != nil {
			return fmt.Errorf("failed to update image: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrImageNotFound
		}
		return nil
	})
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

func clearProfilePicture(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE user_images SET is_profile_picture = FALSE WHERE user_id = $1 AND is_profile_picture`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear profile picture: %w", err)
	}
	return nil
}
