package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Default preference values for new users.
const (
	DefaultTheme         = "system"
	DefaultLanguage      = "en"
	DefaultNotifications = true
)

// Preference holds per-user display settings.
type Preference struct {
	UserID        string    `json:"userId"`
	Theme         string    `json:"theme"`
	Language      string    `json:"language"`
	Notifications bool      `json:"notifications"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PreferenceInput lists preference fields supplied by a client. Nil fields
// keep their current value, or the default on creation.
type PreferenceInput struct {
	Theme         *string `json:"theme"`
	Language      *string `json:"language"`
	Notifications *bool   `json:"notifications"`
}

func (in PreferenceInput) apply(p *Preference) {
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.Language != nil {
		p.Language = *in.Language
	}
	if in.Notifications != nil {
		p.Notifications = *in.Notifications
	}
}

func newPreference(userID string, in PreferenceInput) *Preference {
	now := time.Now().UTC()
	p := &Preference{
		UserID:        userID,
		Theme:         DefaultTheme,
		Language:      DefaultLanguage,
		Notifications: DefaultNotifications,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	in.apply(p)
	return p
}

// GetPreference returns the preferences of userID.
func (s *Store) GetPreference(ctx context.Context, userID string) (*Preference, error) {
	var (
		p                Preference
		created, updated string
	)
	err := s.queryRow(ctx,
		`SELECT user_id, theme, language, notifications, created_at, updated_at
		 FROM preferences WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Theme, &p.Language, &p.Notifications, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreatePreference returns the preferences of userID, creating the
// defaults on first access. created reports whether a row was inserted.
func (s *Store) GetOrCreatePreference(ctx context.Context, userID string) (p *Preference, created bool, err error) {
	p, err = s.GetPreference(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	p, err = s.CreatePreference(ctx, userID, PreferenceInput{})
	if errors.Is(err, ErrAlreadyExists) {
		p, err = s.GetPreference(ctx, userID)
		return p, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// CreatePreference stores new preferences for userID.
func (s *Store) CreatePreference(ctx context.Context, userID string, in PreferenceInput) (*Preference, error) {
	if _, err := s.GetPreference(ctx, userID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p := newPreference(userID, in)
	if err := s.insertPreference(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePreference changes existing preferences.
func (s *Store) UpdatePreference(ctx context.Context, userID string, in PreferenceInput) (*Preference, error) {
	p, err := s.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	p.UpdatedAt = time.Now().UTC()

	res, err := s.exec(ctx,
		`UPDATE preferences SET theme = ?, language = ?, notifications = ?, updated_at = ? WHERE user_id = ?`,
		p.Theme, p.Language, p.Notifications, formatTime(p.UpdatedAt), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return nil, err
	}
	return p, nil
}

// UpsertPreference updates the preferences of userID, creating them if
// they do not exist yet.
func (s *Store) UpsertPreference(ctx context.Context, userID string, in PreferenceInput) (*Preference, error) {
	p, err := s.UpdatePreference(ctx, userID, in)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}

	p = newPreference(userID, in)
	if err := s.insertPreference(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePreference removes the preferences of userID.
func (s *Store) DeletePreference(ctx context.Context, userID string) error {
	res, err := s.exec(ctx, `DELETE FROM preferences WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) insertPreference(ctx context.Context, p *Preference) error {
	_, err := s.exec(ctx,
		`INSERT INTO preferences (user_id, theme, language, notifications, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Theme, p.Language, p.Notifications, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert preferences: %w", err)
	}
	return nil
}
