package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Library is a named reading list owned by one user.
type Library struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	Mangas    []LibraryItem `json:"mangas"`
}

// LibraryItem is a manga tracked in a library.
type LibraryItem struct {
	ID        string    `json:"id"`
	LibraryID string    `json:"libraryId"`
	Slug      string    `json:"slug"`
	Domain    string    `json:"domain"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemUpdate lists the item fields to change. Nil fields are left alone.
type ItemUpdate struct {
	Slug     *string
	Domain   *string
	Progress *int
}

// CreateLibrary creates an empty library for userID.
func (s *Store) CreateLibrary(ctx context.Context, userID, name string) (*Library, error) {
	lib := &Library{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Mangas:    []LibraryItem{},
	}

	_, err := s.exec(ctx,
		`INSERT INTO libraries (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		lib.ID, lib.UserID, lib.Name, formatTime(lib.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert library: %w", err)
	}
	return lib, nil
}

// GetLibrary returns a library with its items.
func (s *Store) GetLibrary(ctx context.Context, id string) (*Library, error) {
	var (
		lib     Library
		created string
	)
	err := s.queryRow(ctx,
		`SELECT id, user_id, name, created_at FROM libraries WHERE id = ?`, id,
	).Scan(&lib.ID, &lib.UserID, &lib.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	if lib.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}

	if lib.Mangas, err = s.listItems(ctx, lib.ID); err != nil {
		return nil, err
	}
	return &lib, nil
}

// ListLibraries returns every library of userID, oldest first.
func (s *Store) ListLibraries(ctx context.Context, userID string) ([]Library, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, name, created_at FROM libraries WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query libraries: %w", err)
	}
	defer rows.Close()

	libs := []Library{}
	for rows.Next() {
		var (
			lib     Library
			created string
		)
		if err := rows.Scan(&lib.ID, &lib.UserID, &lib.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		if lib.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range libs {
		if libs[i].Mangas, err = s.listItems(ctx, libs[i].ID); err != nil {
			return nil, err
		}
	}
	return libs, nil
}

// AddItem adds a manga to a library.
func (s *Store) AddItem(ctx context.Context, libraryID, slug, domain string, progress int) (*LibraryItem, error) {
	var exists int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM libraries WHERE id = ?`, libraryID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	item := &LibraryItem{
		ID:        uuid.NewString(),
		LibraryID: libraryID,
		Slug:      slug,
		Domain:    domain,
		Progress:  progress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.exec(ctx,
		`INSERT INTO library_items (id, library_id, slug, domain, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.LibraryID, item.Slug, item.Domain, item.Progress,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert library item: %w", err)
	}
	return item, nil
}

// GetItem returns one library item.
func (s *Store) GetItem(ctx context.Context, id string) (*LibraryItem, error) {
	row := s.queryRow(ctx,
		`SELECT id, library_id, slug, domain, progress, created_at, updated_at
		 FROM library_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// UpdateItem applies upd to an item and returns the stored result.
func (s *Store) UpdateItem(ctx context.Context, id string, upd ItemUpdate) (*LibraryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Slug != nil {
		item.Slug = *upd.Slug
	}
	if upd.Domain != nil {
		item.Domain = *upd.Domain
	}
	if upd.Progress != nil {
		item.Progress = *upd.Progress
	}
	item.UpdatedAt = time.Now().UTC()

	res, err := s.exec(ctx,
		`UPDATE library_items SET slug = ?, domain = ?, progress = ?, updated_at = ? WHERE id = ?`,
		item.Slug, item.Domain, item.Progress, formatTime(item.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update library item: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM library_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete library item: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) listItems(ctx context.Context, libraryID string) ([]LibraryItem, error) {
	rows, err := s.query(ctx,
		`SELECT id, library_id, slug, domain, progress, created_at, updated_at
		 FROM library_items WHERE library_id = ? ORDER BY created_at, id`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query library items: %w", err)
	}
	defer rows.Close()

	items := []LibraryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*LibraryItem, error) {
	var (
		item             LibraryItem
		created, updated string
	)
	if err := sc.Scan(&item.ID, &item.LibraryID, &item.Slug, &item.Domain, &item.Progress, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if item.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &item, nil
}
