package db

import (
	"database/sql"
	"fmt"
	"time"
)

// ImageSize is a stored probe outcome.
type ImageSize struct {
	URL      string
	Width    int
	Height   int
	Error    string // non-empty when the probe failed
	ProbedAt time.Time
}

// Failed reports whether the stored probe was a failure.
func (s ImageSize) Failed() bool {
	return s.Error != ""
}

// GetImageSize returns the stored probe for url. Entries older than maxAge
// are reported as missing; maxAge <= 0 never expires.
func (db *DB) GetImageSize(url string, maxAge time.Duration) (*ImageSize, bool, error) {
	var (
		size     ImageSize
		probeErr sql.NullString
		probedAt int64
	)
	err := db.QueryRow(`
		SELECT url, width, height, probe_error, probed_at
		FROM image_sizes
		WHERE url = ?
	`, url).Scan(&size.URL, &size.Width, &size.Height, &probeErr, &probedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query image size: %w", err)
	}

	size.Error = probeErr.String
	size.ProbedAt = time.Unix(probedAt, 0)
	if maxAge > 0 && time.Since(size.ProbedAt) > maxAge {
		return nil, false, nil
	}
	return &size, true, nil
}

// PutImageSize stores a successful probe, replacing any earlier entry.
func (db *DB) PutImageSize(url string, width, height int) error {
	return db.putImageSize(url, width, height, sql.NullString{}, time.Now())
}

// PutImageSizeError stores a failed probe.
func (db *DB) PutImageSizeError(url string, probeErr error) error {
	msg := "unknown error"
	if probeErr != nil {
		msg = probeErr.Error()
	}
	return db.putImageSize(url, 0, 0, sql.NullString{String: msg, Valid: true}, time.Now())
}

func (db *DB) putImageSize(url string, width, height int, probeErr sql.NullString, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO image_sizes (url, width, height, probe_error, probed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			probe_error = excluded.probe_error,
			probed_at = excluded.probed_at
	`, url, width, height, probeErr, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to store image size: %w", err)
	}
	return nil
}

// PurgeImageSizes deletes entries probed before cutoff and returns how many
// rows were removed.
func (db *DB) PurgeImageSizes(cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM image_sizes WHERE probed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge image sizes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	return n, nil
}

// ImageSizeStats summarizes the probe cache.
type ImageSizeStats struct {
	Total  int
	Failed int
	Oldest time.Time
}

// CountImageSizes reports how many probes are stored and how many failed.
func (db *DB) CountImageSizes() (ImageSizeStats, error) {
	var (
		stats  ImageSizeStats
		oldest sql.NullInt64
	)
	err := db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN probe_error IS NOT NULL THEN 1 ELSE 0 END), 0),
		       MIN(probed_at)
		FROM image_sizes
	`).Scan(&stats.Total, &stats.Failed, &oldest)
	if err != nil {
		return stats, fmt.Errorf("failed to count image sizes: %w", err)
	}
	if oldest.Valid {
		stats.Oldest = time.Unix(oldest.Int64, 0)
	}
	return stats, nil
}
