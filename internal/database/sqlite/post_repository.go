package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casacolor/casacolor-backend-go/internal/database/models"
	"github.com/casacolor/casacolor-backend-go/internal/database/repositories"
)

// PostRepository implements repositories.PostRepository
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *sql.DB) repositories.PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new community post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, author_id, body, image_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, post.ID, post.AuthorID, post.Body, post.ImagePath, now)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.CreatedAt = now
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT id, author_id, body, image_path, created_at
		FROM posts
		WHERE id = ?
	`

	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.AuthorID,
		&post.Body,
		&post.ImagePath,
		&post.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("post not found with ID: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// List retrieves the most recent posts, newest first
func (r *PostRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, author_id, body, image_path, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post := &models.Post{}
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Body, &post.ImagePath, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Delete removes a post
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post not found with ID: %s", id)
	}

	return nil
}
