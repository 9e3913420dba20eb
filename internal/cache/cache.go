// Package cache keeps a sqlite snapshot of the last-fetched feeds per
// principal, so list commands and the dashboard can render instantly and
// offline. The cache is advisory: the feeds own the live state.
package cache

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cached_notifications (
  principal_id TEXT NOT NULL,
  id TEXT NOT NULL,
  position INTEGER NOT NULL,           -- 0 = newest
  title TEXT NOT NULL,
  subtitle TEXT,
  created_at INTEGER NOT NULL,
  related_id TEXT,
  kind TEXT NOT NULL,
  campaign_id TEXT,
  read INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (principal_id, id)
);

CREATE TABLE IF NOT EXISTS cached_conversations (
  principal_id TEXT NOT NULL,
  id TEXT NOT NULL,
  position INTEGER NOT NULL,           -- 0 = most recently active
  participants TEXT NOT NULL,          -- JSON array of two user refs
  last_text TEXT,
  last_sender TEXT,
  last_at INTEGER,
  PRIMARY KEY (principal_id, id)
);

CREATE TABLE IF NOT EXISTS cache_meta (
  principal_id TEXT NOT NULL,
  feed TEXT NOT NULL,                  -- "notifications" or "conversations"
  refreshed_at INTEGER NOT NULL,
  PRIMARY KEY (principal_id, feed)
);
`

// Cache wraps the sqlite handle.
type Cache struct {
	db *sql.DB
}

// Open opens (and migrates) the cache database under the state dir.
func Open(stateDir string) (*Cache, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(stateDir, "cache.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Cache{db: conn}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveNotifications replaces the cached notification list for a principal.
func (c *Cache) SaveNotifications(principalID string, items []types.NotificationItem) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cached_notifications WHERE principal_id = ?", principalID); err != nil {
		return err
	}
	for i, item := range items {
		_, err := tx.Exec(`INSERT INTO cached_notifications
			(principal_id, id, position, title, subtitle, created_at, related_id, kind, campaign_id, read)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			principalID, item.ID, i, item.Title, item.Subtitle, item.CreatedAt,
			item.RelatedID, string(item.Kind), item.CampaignID, boolInt(item.Read))
		if err != nil {
			return err
		}
	}
	if err := touchMeta(tx, principalID, "notifications"); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadNotifications returns the cached list, newest first.
func (c *Cache) LoadNotifications(principalID string) ([]types.NotificationItem, error) {
	rows, err := c.db.Query(`SELECT id, title, subtitle, created_at, related_id, kind, campaign_id, read
		FROM cached_notifications WHERE principal_id = ? ORDER BY position`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []types.NotificationItem
	for rows.Next() {
		var item types.NotificationItem
		var kind string
		var read int
		if err := rows.Scan(&item.ID, &item.Title, &item.Subtitle, &item.CreatedAt,
			&item.RelatedID, &kind, &item.CampaignID, &read); err != nil {
			return nil, err
		}
		item.Kind = types.NotificationKind(kind)
		item.Read = read != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveConversations replaces the cached conversation list for a principal.
func (c *Cache) SaveConversations(principalID string, summaries []types.ConversationSummary) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cached_conversations WHERE principal_id = ?", principalID); err != nil {
		return err
	}
	for i, s := range summaries {
		participants, err := json.Marshal(s.Participants)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO cached_conversations
			(principal_id, id, position, participants, last_text, last_sender, last_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			principalID, s.ID, i, string(participants),
			s.LastMessage.Text, s.LastMessage.SenderID, s.LastMessage.CreatedAt)
		if err != nil {
			return err
		}
	}
	if err := touchMeta(tx, principalID, "conversations"); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadConversations returns the cached list, most recently active first.
func (c *Cache) LoadConversations(principalID string) ([]types.ConversationSummary, error) {
	rows, err := c.db.Query(`SELECT id, participants, last_text, last_sender, last_at
		FROM cached_conversations WHERE principal_id = ? ORDER BY position`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []types.ConversationSummary
	for rows.Next() {
		var s types.ConversationSummary
		var participants string
		if err := rows.Scan(&s.ID, &participants, &s.LastMessage.Text,
			&s.LastMessage.SenderID, &s.LastMessage.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(participants), &s.Participants); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Clear drops everything cached for a principal. Called on logout.
func (c *Cache) Clear(principalID string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"cached_notifications", "cached_conversations", "cache_meta"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE principal_id = ?", principalID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func touchMeta(tx *sql.Tx, principalID, feedName string) error {
	_, err := tx.Exec(`INSERT INTO cache_meta (principal_id, feed, refreshed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(principal_id, feed) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		principalID, feedName, time.Now().UnixMilli())
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
