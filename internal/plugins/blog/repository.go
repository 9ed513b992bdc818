package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hainu/catalog/internal/apperror"
)

// PostRepository defines the data access contract for blog posts.
type PostRepository interface {
	Count(ctx context.Context) (int, error)

	// List returns posts newest first.
	List(ctx context.Context, limit, offset int) ([]Post, error)
	FindByID(ctx context.Context, id int) (*Post, error)
}

type postRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, service_id, title, text, image, image_url, created_at`

func scanPost(sc interface{ Scan(...any) error }, p *Post) error {
	var serviceID sql.NullInt64
	var image, imageURL sql.NullString
	if err := sc.Scan(&p.ID, &serviceID, &p.Title, &p.Text, &image, &imageURL, &p.CreatedAt); err != nil {
		return err
	}
	if serviceID.Valid {
		id := int(serviceID.Int64)
		p.ServiceID = &id
	}
	if image.Valid {
		p.Image = &image.String
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post rows: %w", err)
	}
	return posts, nil
}

func (r *postRepository) FindByID(ctx context.Context, id int) (*Post, error) {
	p := &Post{}
	err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying post by id: %w", err)
	}
	return p, nil
}
