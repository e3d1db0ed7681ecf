// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedcache caches health-feed articles and topic history in a local
// SQLite database, so the feed panel has content while offline and topic
// history survives restarts.
package feedcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mediguide/mediguide-tui/internal/gateway"
)

// ErrNotFound is returned when an article is not in the cache.
var ErrNotFound = errors.New("article not found")

// schema creates the cache tables.
const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	topics       TEXT NOT NULL DEFAULT '[]',
	published_at TIMESTAMP,
	saved        INTEGER NOT NULL DEFAULT 0,
	fetched_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS topic_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	topic       TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_topics_recorded ON topic_history(recorded_at DESC);
`

// Cache is the local feed cache. Safe for use from one process; SQLite
// serializes writers.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// ARTICLES
// =============================================================================

// PutArticles upserts a batch of fetched articles.
func (c *Cache) PutArticles(articles []gateway.Article) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, title, summary, content, source, url, topics, published_at, saved, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			source = excluded.source,
			url = excluded.url,
			topics = excluded.topics,
			published_at = excluded.published_at,
			saved = excluded.saved,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range articles {
		topics, err := json.Marshal(a.Topics)
		if err != nil {
			return err
		}
		saved := 0
		if a.Saved {
			saved = 1
		}
		if _, err := stmt.Exec(a.ID, a.Title, a.Summary, a.Content, a.Source, a.URL, string(topics), a.PublishedAt, saved, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Articles returns cached articles, most recently fetched first.
func (c *Cache) Articles(limit int) ([]gateway.Article, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(`
		SELECT id, title, summary, content, source, url, topics, published_at, saved
		FROM articles
		ORDER BY fetched_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []gateway.Article
	for rows.Next() {
		var a gateway.Article
		var topics string
		var published sql.NullTime
		var saved int
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.Source, &a.URL, &topics, &published, &saved); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topics), &a.Topics); err != nil {
			a.Topics = nil
		}
		if published.Valid {
			a.PublishedAt = published.Time
		}
		a.Saved = saved != 0
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Article returns a single cached article by id.
func (c *Cache) Article(id string) (*gateway.Article, error) {
	row := c.db.QueryRow(`
		SELECT id, title, summary, content, source, url, topics, published_at, saved
		FROM articles WHERE id = ?`, id)

	var a gateway.Article
	var topics string
	var published sql.NullTime
	var saved int
	err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.Source, &a.URL, &topics, &published, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(topics), &a.Topics); err != nil {
		a.Topics = nil
	}
	if published.Valid {
		a.PublishedAt = published.Time
	}
	a.Saved = saved != 0
	return &a, nil
}

// MarkSaved flags an article as bookmarked locally.
func (c *Cache) MarkSaved(id string) error {
	result, err := c.db.Exec(`UPDATE articles SET saved = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// TOPIC HISTORY
// =============================================================================

// RecordTopics appends extracted topics to the local history. Duplicates are
// kept; the history mirrors the session accumulator.
func (c *Cache) RecordTopics(topics []string, source string) error {
	if len(topics) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO topic_history (topic, source, recorded_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, topic := range topics {
		if _, err := stmt.Exec(topic, source, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentTopics returns the most recently recorded distinct topics.
func (c *Cache) RecentTopics(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := c.db.Query(`
		SELECT topic FROM topic_history
		GROUP BY topic
		ORDER BY MAX(recorded_at) DESC, topic
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}
