// Package sqlite is the durable substrate behind the document and
// conversation stores: single-file SQLite with WAL, foreign keys, and
// embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tbadri/ragchat/internal/data/sqlite/migrations"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
)

// Store holds the shared database handle. One long-lived instance per
// process; requests share it concurrently.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the store under dataDir, running any pending
// migrations. An empty dataDir defaults to ./data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ragchat.db")

	// WAL keeps concurrent readers off the writers' backs
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// CreateDocument allocates an id and persists the document.
func (s *Store) CreateDocument(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fault.Errorf(fault.InvalidInput, "document name is empty")
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name) VALUES (?, ?)
	`, id, name)
	if err != nil {
		return "", fault.New(fault.StorageUnavailable, fmt.Errorf("creating document: %w", err))
	}
	return id, nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM documents WHERE id = ?
	`, id)

	var doc model.Document
	if err := row.Scan(&doc.Id, &doc.Name, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.Errorf(fault.NotFound, "document %s", id)
		}
		return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("scanning document: %w", err))
	}
	return &doc, nil
}

// AddChunk persists a single chunk atomically. The owning document
// must exist, the content must be non-empty, and the embedding must
// match the dimension of every chunk already stored.
func (s *Store) AddChunk(ctx context.Context, documentId, content string, embedding []float32) error {
	chunk := model.Chunk{
		Id:         uuid.New().String(),
		DocumentId: documentId,
		Content:    content,
		Embedding:  embedding,
	}
	return s.AddChunks(ctx, documentId, []model.Chunk{chunk})
}

// AddChunks persists a batch of chunks in one transaction. Positions
// are assigned after the document's current highest, preserving
// insertion order for reconstruction.
func (s *Store) AddChunks(ctx context.Context, documentId string, chunks []model.Chunk) error {
	for _, c := range chunks {
		if c.Content == "" {
			return fault.Errorf(fault.InvalidInput, "chunk content is empty")
		}
		if len(c.Embedding) == 0 {
			return fault.Errorf(fault.InvalidInput, "chunk embedding is empty")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM documents WHERE id = ?", documentId)
	if err := row.Scan(&exists); err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("checking document: %w", err))
	}
	if exists == 0 {
		return fault.Errorf(fault.NotFound, "document %s", documentId)
	}

	// store-wide dimension invariant: a write that disagrees with what
	// is already stored is rejected, never silently truncated or padded
	var storedBytes sql.NullInt64
	row = tx.QueryRowContext(ctx, "SELECT length(embedding) FROM chunks LIMIT 1")
	if err := row.Scan(&storedBytes); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("checking embedding dimension: %w", err))
	}
	for _, c := range chunks {
		if storedBytes.Valid && int64(len(c.Embedding)*4) != storedBytes.Int64 {
			return fault.Errorf(fault.InvalidInput,
				"embedding dimension %d disagrees with stored dimension %d",
				len(c.Embedding), storedBytes.Int64/4)
		}
	}

	var position int
	row = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position)+1, 0) FROM chunks WHERE document_id = ?", documentId)
	if err := row.Scan(&position); err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("getting next position: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, embedding, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("preparing statement: %w", err))
	}
	defer stmt.Close()

	for i, c := range chunks {
		id := c.Id
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, documentId, c.Content,
			float32SliceToBytes(c.Embedding), position+i); err != nil {
			return fault.New(fault.StorageUnavailable, fmt.Errorf("inserting chunk: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// AllChunks is the full scan behind brute-force retrieval. Ordering is
// unspecified; the retriever re-sorts by score.
func (s *Store) AllChunks(ctx context.Context) ([]model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, embedding, position, created_at FROM chunks
	`)
	if err != nil {
		return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("querying chunks: %w", err))
	}
	defer rows.Close()

	var chunks []model.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c model.Chunk
		var blob []byte
		if err := rows.Scan(&c.Id, &c.DocumentId, &c.Content, &blob, &c.Position, &c.CreatedAt); err != nil {
			return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("scanning chunk: %w", err))
		}
		c.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("iterating chunks: %w", err))
	}
	return chunks, nil
}

// DeleteDocument removes a document; its chunks go with it via the
// foreign-key cascade, atomically.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("deleting document: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fault.New(fault.StorageUnavailable, fmt.Errorf("deleting document: %w", err))
	}
	if affected == 0 {
		return fault.Errorf(fault.NotFound, "document %s", id)
	}
	return nil
}

// ==================== Conversation Store ====================

// AppendTurn appends a turn with the next monotonic id. Durable before
// return.
func (s *Store) AppendTurn(ctx context.Context, conversationId string, role model.Role, content string) (model.Turn, error) {
	if conversationId == "" {
		return model.Turn{}, fault.Errorf(fault.InvalidInput, "conversation id is empty")
	}
	if content == "" {
		return model.Turn{}, fault.Errorf(fault.InvalidInput, "turn content is empty")
	}
	switch role {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
	default:
		return model.Turn{}, fault.Errorf(fault.InvalidInput, "unknown role %q", role)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content) VALUES (?, ?, ?)
	`, conversationId, string(role), content)
	if err != nil {
		return model.Turn{}, fault.New(fault.StorageUnavailable, fmt.Errorf("appending turn: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Turn{}, fault.New(fault.StorageUnavailable, fmt.Errorf("appending turn: %w", err))
	}

	return model.Turn{
		Id:             id,
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
	}, nil
}

// RecentTurns returns up to limit most recent turns in chronological
// (oldest-first) order. An unknown conversation id returns an empty
// slice - a new conversation needs no provisioning.
func (s *Store) RecentTurns(ctx context.Context, conversationId string, limit int) ([]model.Turn, error) {
	if limit <= 0 {
		return []model.Turn{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, conversationId, limit)
	if err != nil {
		return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("querying turns: %w", err))
	}
	defer rows.Close()

	turns := make([]model.Turn, 0, limit)
	for rows.Next() {
		var t model.Turn
		var role string
		if err := rows.Scan(&t.Id, &t.ConversationId, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("scanning turn: %w", err))
		}
		t.Role = model.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.New(fault.StorageUnavailable, fmt.Errorf("iterating turns: %w", err))
	}

	// query came back newest-first, flip to chronological
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Counts returns the observational aggregates for /stats.
func (s *Store) Counts(ctx context.Context) (model.Counts, error) {
	var c model.Counts
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM messages)
	`)
	if err := row.Scan(&c.Documents, &c.Chunks, &c.Messages); err != nil {
		return model.Counts{}, fault.New(fault.StorageUnavailable, fmt.Errorf("counting rows: %w", err))
	}
	return c, nil
}

// ==================== blob helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
