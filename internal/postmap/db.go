package postmap

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("post db client is closed")

// Record maps one post id to the directory it was saved under. The mapping
// lets post directories carry human-readable names while staying stable when
// a post's title changes between runs.
type Record struct {
	ID          int64
	CreatorName string
	PostID      string
	PostPath    string
	CreatedAt   string
}

// DB is the sqlite-backed post mapping store.
type DB struct {
	db     *sql.DB
	closed bool
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    creator_name TEXT NOT NULL,
    post_id TEXT NOT NULL,
    post_path TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (post_id, creator_name)
);
CREATE INDEX IF NOT EXISTS idx_creator_name ON posts (creator_name);
CREATE INDEX IF NOT EXISTS idx_post_id ON posts (post_id);
`

// Open opens (creating if needed) the post mapping database at path and
// ensures its schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open post db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure post db schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// CreatePost records a post-to-path mapping. Inserting the same post id for
// the same creator twice fails on the unique index.
func (d *DB) CreatePost(creatorName, postPath, postID string) (*Record, error) {
	if d.closed {
		return nil, ErrClosed
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)
	res, err := d.db.Exec(
		`INSERT INTO posts (creator_name, post_id, post_path, created_at) VALUES (?, ?, ?, ?)`,
		creatorName, postID, postPath, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post mapping: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read post mapping id: %w", err)
	}
	return &Record{
		ID:          id,
		CreatorName: creatorName,
		PostID:      postID,
		PostPath:    postPath,
		CreatedAt:   createdAt,
	}, nil
}

// GetPost returns the mapping for a post id, or nil when none exists.
func (d *DB) GetPost(postID string) (*Record, error) {
	if d.closed {
		return nil, ErrClosed
	}
	row := d.db.QueryRow(
		`SELECT id, creator_name, post_id, post_path, created_at FROM posts WHERE post_id = ?`,
		postID,
	)
	var r Record
	err := row.Scan(&r.ID, &r.CreatorName, &r.PostID, &r.PostPath, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post mapping: %w", err)
	}
	return &r, nil
}

// GetPostsByPath returns every mapping stored under a directory path, newest
// first. Used to detect title collisions before creating a new directory.
func (d *DB) GetPostsByPath(postPath string) ([]Record, error) {
	if d.closed {
		return nil, ErrClosed
	}
	rows, err := d.db.Query(
		`SELECT id, creator_name, post_id, post_path, created_at FROM posts
		 WHERE post_path = ? ORDER BY created_at DESC`,
		postPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query post mappings: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.CreatorName, &r.PostID, &r.PostPath, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post mapping: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
