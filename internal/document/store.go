package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound reports a missing document, version, or conversation.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict reports a turn commit whose base version is no longer
// the document's latest. The caller re-reads and retries.
var ErrVersionConflict = errors.New("document version conflict")

// Document is the stable identity a conversation attaches to. Its content
// lives in immutable versions.
type Document struct {
	ID            int64
	Title         string
	SchemaName    string
	LatestVersion int
	CreatedAt     string
	UpdatedAt     string
}

// Version is one immutable snapshot of a document's elements.
type Version struct {
	ID           int64
	DocumentID   int64
	Version      int
	Elements     map[string]json.RawMessage
	HTMLElements map[string]json.RawMessage
	IsActive     bool
	CreatedAt    string
}

// Message is one persisted conversation entry, pinned to the document
// version it was made against.
type Message struct {
	ID             int64
	ConversationID int64
	VersionID      int64
	FromAgentType  string
	Message        string
	RawText        string
	CreatedAt      string
}

// TurnRecord pairs a message with the element snapshot of its version.
type TurnRecord struct {
	Message  Message
	Elements map[string]json.RawMessage
}

// Store provides persistence for documents, versions, and conversations.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateDocument inserts the document and its empty version 1.
func (s *Store) CreateDocument(ctx context.Context, schemaName, title string) (Document, Version, error) {
	createdAt := now()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Document{}, Version{}, fmt.Errorf("begin create document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO documents(title, schema_name, latest_version, created_at, updated_at)
		VALUES(?, ?, 1, ?, ?)`, title, schemaName, createdAt, createdAt)
	if err != nil {
		return Document{}, Version{}, fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return Document{}, Version{}, fmt.Errorf("document id: %w", err)
	}

	res, err = tx.ExecContext(ctx, `INSERT INTO document_versions(document_id, version, elements, html_elements, is_active, created_at)
		VALUES(?, 1, '{}', '{}', 1, ?)`, docID, createdAt)
	if err != nil {
		return Document{}, Version{}, fmt.Errorf("insert version: %w", err)
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return Document{}, Version{}, fmt.Errorf("version id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, Version{}, fmt.Errorf("commit create document: %w", err)
	}
	doc := Document{ID: docID, Title: title, SchemaName: schemaName, LatestVersion: 1, CreatedAt: createdAt, UpdatedAt: createdAt}
	version := Version{
		ID: versionID, DocumentID: docID, Version: 1,
		Elements:     map[string]json.RawMessage{},
		HTMLElements: map[string]json.RawMessage{},
		IsActive:     true, CreatedAt: createdAt,
	}
	return doc, version, nil
}

// GetDocument fetches one document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `SELECT id, title, schema_name, latest_version, created_at, updated_at
		FROM documents WHERE id=?`, id).
		Scan(&doc.ID, &doc.Title, &doc.SchemaName, &doc.LatestVersion, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, schema_name, latest_version, created_at, updated_at
		FROM documents ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.SchemaName, &doc.LatestVersion, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

const versionColumns = `id, document_id, version, elements, html_elements, is_active, created_at`

func scanVersion(row interface{ Scan(...any) error }) (Version, error) {
	var v Version
	var elements, htmlElements []byte
	var active int
	if err := row.Scan(&v.ID, &v.DocumentID, &v.Version, &elements, &htmlElements, &active, &v.CreatedAt); err != nil {
		return Version{}, err
	}
	v.IsActive = active != 0
	if err := json.Unmarshal(elements, &v.Elements); err != nil {
		return Version{}, fmt.Errorf("decode elements: %w", err)
	}
	if err := json.Unmarshal(htmlElements, &v.HTMLElements); err != nil {
		return Version{}, fmt.Errorf("decode html elements: %w", err)
	}
	return v, nil
}

// ActiveVersion returns the document's current active version.
func (s *Store) ActiveVersion(ctx context.Context, documentID int64) (Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM document_versions
		WHERE document_id=? AND is_active=1 ORDER BY version DESC LIMIT 1`, documentID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("active version of document %d: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("active version: %w", err)
	}
	return v, nil
}

// VersionByNumber returns one version row regardless of its active flag.
func (s *Store) VersionByNumber(ctx context.Context, documentID int64, version int) (Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM document_versions
		WHERE document_id=? AND version=?`, documentID, version)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("version %d of document %d: %w", version, documentID, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// ListVersions returns every version of a document including inactive ones,
// oldest first.
func (s *Store) ListVersions(ctx context.Context, documentID int64) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+versionColumns+` FROM document_versions
		WHERE document_id=? ORDER BY version`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// EnsureConversation returns the document's open conversation, creating one
// when none exists. Reverts close conversations, so the next turn after a
// revert starts a fresh one.
func (s *Store) EnsureConversation(ctx context.Context, documentID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM conversations
		WHERE document_id=? AND is_deleted=0 ORDER BY id DESC LIMIT 1`, documentID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("find conversation: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO conversations(document_id, created_at) VALUES(?, ?)`,
		documentID, now())
	if err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conversation id: %w", err)
	}
	return id, nil
}

// AppendUserMessage records the user's message against the given version.
func (s *Store) AppendUserMessage(ctx context.Context, conversationID, versionID int64, text string) (Message, error) {
	createdAt := now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO chat_messages(conversation_id, version_id, from_agent_type, message, raw_text, created_at)
		VALUES(?, ?, 'user', ?, '', ?)`, conversationID, versionID, text, createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert user message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("message id: %w", err)
	}
	return Message{
		ID: id, ConversationID: conversationID, VersionID: versionID,
		FromAgentType: "user", Message: text, CreatedAt: createdAt,
	}, nil
}

// TurnCommit is the write set of one successful agent turn.
type TurnCommit struct {
	DocumentID     int64
	ConversationID int64
	// BaseVersion is the version number the agent's snapshot came from.
	BaseVersion int
	ElementID   string
	Element     json.RawMessage
	// HTML is the optional rendering of the updated element.
	HTML      json.RawMessage
	AgentType string
	Message   string
	RawText   string
}

// CommitTurn applies an agent turn in one transaction: verify the snapshot is
// still current, allocate the next version number over all versions including
// inactive ones, clone the base elements with the one owned element replaced,
// and record the agent's message against the new version. A stale snapshot
// returns ErrVersionConflict and writes nothing.
func (s *Store) CommitTurn(ctx context.Context, commit TurnCommit) (Version, Message, error) {
	createdAt := now()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("begin commit turn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	err = tx.QueryRowContext(ctx, `SELECT latest_version FROM documents WHERE id=?`, commit.DocumentID).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, Message{}, fmt.Errorf("document %d: %w", commit.DocumentID, ErrNotFound)
	}
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("read latest version: %w", err)
	}
	if latest != commit.BaseVersion {
		return Version{}, Message{}, fmt.Errorf("%w: turn based on version %d, latest is %d",
			ErrVersionConflict, commit.BaseVersion, latest)
	}

	row := tx.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM document_versions
		WHERE document_id=? AND version=?`, commit.DocumentID, commit.BaseVersion)
	base, err := scanVersion(row)
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("read base version: %w", err)
	}

	// Version numbers are never reused: allocate past every version ever
	// written, active or not.
	var newNumber int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM document_versions
		WHERE document_id=?`, commit.DocumentID).Scan(&newNumber); err != nil {
		return Version{}, Message{}, fmt.Errorf("allocate version number: %w", err)
	}

	elements := cloneElements(base.Elements)
	elements[commit.ElementID] = commit.Element
	htmlElements := cloneElements(base.HTMLElements)
	if commit.HTML != nil {
		htmlElements[commit.ElementID] = commit.HTML
	}

	elementsJSON, err := json.Marshal(elements)
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("encode elements: %w", err)
	}
	htmlJSON, err := json.Marshal(htmlElements)
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("encode html elements: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO document_versions(document_id, version, elements, html_elements, is_active, created_at)
		VALUES(?, ?, ?, ?, 1, ?)`, commit.DocumentID, newNumber, elementsJSON, htmlJSON, createdAt)
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("insert version: %w", err)
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("version id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE documents SET latest_version=?, updated_at=? WHERE id=?`,
		newNumber, createdAt, commit.DocumentID); err != nil {
		return Version{}, Message{}, fmt.Errorf("update document: %w", err)
	}

	res, err = tx.ExecContext(ctx, `INSERT INTO chat_messages(conversation_id, version_id, from_agent_type, message, raw_text, created_at)
		VALUES(?, ?, ?, ?, ?, ?)`,
		commit.ConversationID, versionID, commit.AgentType, commit.Message, commit.RawText, createdAt)
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("insert agent message: %w", err)
	}
	messageID, err := res.LastInsertId()
	if err != nil {
		return Version{}, Message{}, fmt.Errorf("message id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, Message{}, fmt.Errorf("commit turn: %w", err)
	}

	version := Version{
		ID: versionID, DocumentID: commit.DocumentID, Version: newNumber,
		Elements: elements, HTMLElements: htmlElements, IsActive: true, CreatedAt: createdAt,
	}
	message := Message{
		ID: messageID, ConversationID: commit.ConversationID, VersionID: versionID,
		FromAgentType: commit.AgentType, Message: commit.Message, RawText: commit.RawText, CreatedAt: createdAt,
	}
	return version, message, nil
}

func cloneElements(src map[string]json.RawMessage) map[string]json.RawMessage {
	dst := make(map[string]json.RawMessage, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Revert restores targetVersion as the document's active state. Versions
// above the target are deactivated and their messages soft-deleted; their
// numbers stay burned. Conversations left without active messages are closed
// best-effort afterwards.
func (s *Store) Revert(ctx context.Context, documentID int64, targetVersion int) (Version, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Version{}, fmt.Errorf("begin revert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM document_versions
		WHERE document_id=? AND version=?`, documentID, targetVersion)
	target, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("version %d of document %d: %w", targetVersion, documentID, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("read target version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chat_messages SET is_deleted=1 WHERE version_id IN (
			SELECT id FROM document_versions WHERE document_id=? AND version>?)`,
		documentID, targetVersion); err != nil {
		return Version{}, fmt.Errorf("soft-delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE document_versions SET is_active=0
		WHERE document_id=? AND version>?`, documentID, targetVersion); err != nil {
		return Version{}, fmt.Errorf("deactivate versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE document_versions SET is_active=1
		WHERE document_id=? AND version=?`, documentID, targetVersion); err != nil {
		return Version{}, fmt.Errorf("activate target version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE documents SET latest_version=?, updated_at=? WHERE id=?`,
		targetVersion, now(), documentID); err != nil {
		return Version{}, fmt.Errorf("update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit revert: %w", err)
	}

	// Pruning is cosmetic; a failure here leaves an empty open conversation
	// behind, nothing else.
	if _, err := s.db.ExecContext(ctx, `UPDATE conversations SET is_deleted=1
		WHERE document_id=? AND NOT EXISTS (
			SELECT 1 FROM chat_messages WHERE conversation_id=conversations.id AND is_deleted=0)`,
		documentID); err != nil {
		log.Warn().Err(err).Int64("document", documentID).Msg("prune conversations failed")
	}

	target.IsActive = true
	return target, nil
}

// ConversationTurns returns the conversation's live messages in order, each
// with the element snapshot of the version it was made against.
func (s *Store) ConversationTurns(ctx context.Context, conversationID int64) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT m.id, m.conversation_id, m.version_id, m.from_agent_type,
			m.message, m.raw_text, m.created_at, v.elements
		FROM chat_messages m
		JOIN document_versions v ON v.id = m.version_id
		WHERE m.conversation_id=? AND m.is_deleted=0
		ORDER BY m.id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var elements []byte
		if err := rows.Scan(&rec.Message.ID, &rec.Message.ConversationID, &rec.Message.VersionID,
			&rec.Message.FromAgentType, &rec.Message.Message, &rec.Message.RawText,
			&rec.Message.CreatedAt, &elements); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal(elements, &rec.Elements); err != nil {
			return nil, fmt.Errorf("decode elements: %w", err)
		}
		turns = append(turns, rec)
	}
	return turns, rows.Err()
}

// ListMessages returns every live message of a document across its
// conversations, oldest first.
func (s *Store) ListMessages(ctx context.Context, documentID int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT m.id, m.conversation_id, m.version_id, m.from_agent_type,
			m.message, m.raw_text, m.created_at
		FROM chat_messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.document_id=? AND m.is_deleted=0
		ORDER BY m.id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.VersionID, &m.FromAgentType,
			&m.Message, &m.RawText, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
