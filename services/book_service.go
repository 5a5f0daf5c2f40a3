package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koachReaderAPI/internal/book"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidPageCount = errors.New("page count must be a positive integer")
)

type BookService struct {
	db *pgxpool.Pool
}

func NewBookService(db *pgxpool.Pool) *BookService {
	return &BookService{db: db}
}

func (s *BookService) CreateBook(ctx context.Context, clerkID string, req *book.CreateBookRequest) (*book.Book, error) {
	if req.PageCount <= 0 {
		return nil, ErrInvalidPageCount
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return nil, fmt.Errorf("title and author are required")
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	b := &book.Book{
		ID:           uuid.New(),
		Title:        req.Title,
		Author:       req.Author,
		PageCount:    req.PageCount,
		Category:     req.Category,
		Language:     req.Language,
		CoverURL:     req.CoverURL,
		IsPublic:     req.IsPublic,
		UploadedByID: &userID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
	INSERT INTO books (id, title, author, page_count, category, language, cover_url, is_public, uploaded_by_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.Exec(ctx, query,
		b.ID, b.Title, b.Author, b.PageCount, b.Category, b.Language,
		b.CoverURL, b.IsPublic, b.UploadedByID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	return b, nil
}

func (s *BookService) GetBook(ctx context.Context, bookID uuid.UUID) (*book.Book, error) {
	query := `
	SELECT id, title, author, page_count, category, language, cover_url, is_public, uploaded_by_id, created_at, updated_at
	FROM books
	WHERE id = $1
	`

	b := &book.Book{}
	err := s.db.QueryRow(ctx, query, bookID).Scan(
		&b.ID, &b.Title, &b.Author, &b.PageCount, &b.Category, &b.Language,
		&b.CoverURL, &b.IsPublic, &b.UploadedByID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return b, nil
}

// GetBooks lists the catalog visible to the user: public books plus their own
// uploads.
func (s *BookService) GetBooks(ctx context.Context, clerkID string, category string) ([]*book.Book, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT id, title, author, page_count, category, language, cover_url, is_public, uploaded_by_id, created_at, updated_at
	FROM books
	WHERE (is_public = true OR uploaded_by_id = $1)
		AND ($2 = '' OR category = $2)
	ORDER BY title
	LIMIT 100
	`

	rows, err := s.db.Query(ctx, query, userID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch books: %w", err)
	}
	defer rows.Close()

	var books []*book.Book
	for rows.Next() {
		b := &book.Book{}
		err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.PageCount, &b.Category, &b.Language,
			&b.CoverURL, &b.IsPublic, &b.UploadedByID, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if books == nil {
		books = []*book.Book{}
	}

	return books, nil
}

func (s *BookService) SearchBooks(ctx context.Context, clerkID string, query string) ([]*book.Book, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	searchPattern := "%" + strings.TrimSpace(query) + "%"

	sqlQuery := `
	SELECT id, title, author, page_count, category, language, cover_url, is_public, uploaded_by_id, created_at, updated_at
	FROM books
	WHERE (is_public = true OR uploaded_by_id = $1)
		AND (title ILIKE $2 OR author ILIKE $2)
	ORDER BY title
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, sqlQuery, userID, searchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var books []*book.Book
	for rows.Next() {
		b := &book.Book{}
		err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.PageCount, &b.Category, &b.Language,
			&b.CoverURL, &b.IsPublic, &b.UploadedByID, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if books == nil {
		books = []*book.Book{}
	}

	return books, nil
}

// UpdateBook lets a book's uploader edit its metadata. Page count is fixed at
// creation; plans derive their schedule from it.
func (s *BookService) UpdateBook(ctx context.Context, clerkID string, bookID uuid.UUID, req *book.UpdateBookRequest) (*book.Book, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	UPDATE books
	SET
		title = COALESCE(NULLIF($3, ''), title),
		author = COALESCE(NULLIF($4, ''), author),
		category = COALESCE($5, category),
		language = COALESCE($6, language),
		cover_url = COALESCE($7, cover_url),
		updated_at = NOW()
	WHERE id = $1 AND uploaded_by_id = $2
	RETURNING id, title, author, page_count, category, language, cover_url, is_public, uploaded_by_id, created_at, updated_at
	`

	b := &book.Book{}
	err = s.db.QueryRow(ctx, query, bookID, userID, req.Title, req.Author, req.Category, req.Language, req.CoverURL).Scan(
		&b.ID, &b.Title, &b.Author, &b.PageCount, &b.Category, &b.Language,
		&b.CoverURL, &b.IsPublic, &b.UploadedByID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return b, nil
}
