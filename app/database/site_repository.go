package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SiteRepository = (*SiteRepo)(nil)

type SiteRepo struct {
	db *DB
}

func NewSiteRepository(db *DB) *SiteRepo {
	return &SiteRepo{db: db}
}

func (r *SiteRepo) GetSite(siteName string) (*Site, error) {
	var site Site
	var lastBuiltAt, nextBuildAt sql.NullString
	var createdAt, updatedAt string

	err := r.db.QueryRow(`
		SELECT name, listing_url, last_built_at, next_build_at, created_at, updated_at
		FROM sites
		WHERE name = ?
	`, siteName).Scan(&site.Name, &site.ListingURL, &lastBuiltAt, &nextBuildAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	if site.LastBuiltAt, err = parseTime(lastBuiltAt); err != nil {
		return nil, err
	}
	if site.NextBuildAt, err = parseTime(nextBuildAt); err != nil {
		return nil, err
	}

	created, err := parseTime(sql.NullString{String: createdAt, Valid: true})
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(sql.NullString{String: updatedAt, Valid: true})
	if err != nil {
		return nil, err
	}
	site.CreatedAt = *created
	site.UpdatedAt = *updated

	return &site, nil
}

func (r *SiteRepo) GetSiteCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sites`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sites: %w", err)
	}
	return count, nil
}

func (r *SiteRepo) UpsertSite(siteName, listingURL string) error {
	now := formatTime(time.Now())

	_, err := r.db.Exec(`
		INSERT INTO sites (name, listing_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			listing_url = excluded.listing_url,
			updated_at = excluded.updated_at
	`, siteName, listingURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert site: %w", err)
	}

	return nil
}

func (r *SiteRepo) UpdateBuildSchedule(siteName string, builtAt time.Time, nextBuildAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE sites
		SET last_built_at = ?, next_build_at = ?, updated_at = ?
		WHERE name = ?
	`, formatTime(builtAt), formatTime(nextBuildAt), formatTime(time.Now()), siteName)
	if err != nil {
		return fmt.Errorf("failed to update build schedule: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("site %q is not registered", siteName)
	}

	return nil
}
