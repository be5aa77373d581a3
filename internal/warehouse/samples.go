package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hoanghai1803/tweetgen/internal/config"
	"github.com/hoanghai1803/tweetgen/internal/models"
)

// SampleQuery selects the most recent posts of a set of authors.
type SampleQuery struct {
	Name    string // "grounding" | "recency", used in logs and errors
	Authors []string
	Limit   int
}

// QueryFromConfig builds a SampleQuery from its configuration table.
func QueryFromConfig(name string, q config.QueryConfig) SampleQuery {
	return SampleQuery{Name: name, Authors: q.Authors, Limit: q.Limit}
}

// sampleSQL returns the read query for n author placeholders. The limit comes
// from configuration and is an integer, so it is inlined; author names are
// always bound.
func sampleSQL(n, limit int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return fmt.Sprintf(`SELECT p.name, t.text
		FROM twitter_tweets t
		JOIN twitter_profiles p ON t.poster_id = p.id
		WHERE p.name IN (%s)
		ORDER BY t.timestamp DESC
		LIMIT %d`, placeholders, limit)
}

// FetchSamples runs q and returns its rows newest first. An empty result is
// not an error. Rows with a NULL text are skipped. Failures wrap
// models.ErrDataSource.
func (s *Store) FetchSamples(ctx context.Context, q SampleQuery) ([]models.TextSample, error) {
	if len(q.Authors) == 0 || q.Limit < 1 {
		return nil, fmt.Errorf("%w: %s query needs at least one author and a positive limit", models.ErrDataSource, q.Name)
	}

	args := make([]any, len(q.Authors))
	for i, a := range q.Authors {
		args[i] = a
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, sampleSQL(len(q.Authors), q.Limit), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s samples: %w", models.ErrDataSource, q.Name, err)
	}
	defer rows.Close()

	var samples []models.TextSample
	for rows.Next() {
		var (
			author string
			text   sql.NullString
		)
		if err := rows.Scan(&author, &text); err != nil {
			return nil, fmt.Errorf("%w: scanning %s sample: %w", models.ErrDataSource, q.Name, err)
		}
		if !text.Valid {
			continue
		}
		samples = append(samples, models.TextSample{Author: author, Text: text.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s samples: %w", models.ErrDataSource, q.Name, err)
	}

	slog.Info("fetched samples",
		"set", q.Name,
		"count", len(samples),
		"duration", time.Since(start).String(),
	)
	return samples, nil
}

// AddTweet inserts a post into a SQLite mirror, creating the author's
// profile on first use. It is how local mirrors get populated.
func (s *Store) AddTweet(ctx context.Context, author, text string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO twitter_profiles (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, author,
	); err != nil {
		return fmt.Errorf("upserting profile %q: %w", author, err)
	}

	var posterID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM twitter_profiles WHERE name = ?`, author,
	).Scan(&posterID); err != nil {
		return fmt.Errorf("getting profile id for %q: %w", author, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO twitter_tweets (poster_id, text, timestamp) VALUES (?, ?, ?)`,
		posterID, text, at.UTC().Format("2006-01-02 15:04:05"),
	); err != nil {
		return fmt.Errorf("inserting tweet: %w", err)
	}

	return tx.Commit()
}
