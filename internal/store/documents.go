package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/provkit/internal/canonical"
	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
	"github.com/roach88/provkit/internal/vocab"
)

// DocumentInfo describes a stored document without decoding it.
type DocumentInfo struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Hash        string    `json:"hash" yaml:"hash"`
	RecordCount int       `json:"record_count" yaml:"record_count"`
	BundleCount int       `json:"bundle_count" yaml:"bundle_count"`
	Seq         int64     `json:"seq" yaml:"seq"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// StoredDocument is a document read back from the store.
type StoredDocument struct {
	DocumentInfo
	Document    *prov.Document
	Diagnostics []provrdf.Diagnostic
}

// builtinPrefixes are always bound on encode and are not reseeded on read.
var builtinPrefixes = map[string]string{
	"prov": vocab.ProvNS,
	"xsd":  vocab.XsdNS,
	"rdfs": vocab.RdfsNS,
}

const documentColumns = `id, name, content_hash, record_count, bundle_count, seq, created_at`

// Put stores doc under name. Documents are content addressed: if an equal
// document is already stored, its info is returned and created is false.
func (s *Store) Put(ctx context.Context, name string, doc *prov.Document) (info DocumentInfo, created bool, err error) {
	nq, err := canonical.NQuads(doc)
	if err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	ns, err := canonical.Namespaces(doc)
	if err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	hash := canonical.NQuadsHash(nq)

	existing, err := s.FindByHash(ctx, hash)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}

	info = DocumentInfo{
		ID:          s.ids.NewID(),
		Name:        name,
		Hash:        hash,
		RecordCount: countRecords(doc),
		BundleCount: len(doc.Bundles()),
		Seq:         s.clock.Next(),
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	defer tx.Rollback()

	// A concurrent put of the same content loses the race here and falls
	// back to a lookup.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents
		(id, name, content_hash, nquads, namespaces, record_count, bundle_count, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		info.ID,
		info.Name,
		info.Hash,
		string(nq),
		string(ns),
		info.RecordCount,
		info.BundleCount,
		info.Seq,
		info.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	if n == 0 {
		existing, err = scanInfo(tx.QueryRowContext(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, hash))
		if err != nil {
			return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
		}
		s.log.Debug("document already stored", "id", existing.ID, "hash", hash)
		return existing, false, nil
	}

	for _, b := range doc.Bundles() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_bundles (document_id, bundle_uri, record_count)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, info.ID, b.Identifier().URI(), b.Len()); err != nil {
			return DocumentInfo{}, false, fmt.Errorf("put document bundle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return DocumentInfo{}, false, fmt.Errorf("put document: %w", err)
	}
	s.log.Info("document stored", "id", info.ID, "name", name, "records", info.RecordCount)
	return info, true, nil
}

// Get reads a document and decodes it. Returns sql.ErrNoRows (wrapped) if
// no document has the given ID.
func (s *Store) Get(ctx context.Context, id string) (*StoredDocument, error) {
	var (
		nq, ns string
		info   DocumentInfo
		stamp  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, content_hash, record_count, bundle_count, seq, created_at, nquads, namespaces
		FROM documents
		WHERE id = ?
	`, id).Scan(&info.ID, &info.Name, &info.Hash, &info.RecordCount, &info.BundleCount, &info.Seq, &stamp, &nq, &ns)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if info.CreatedAt, err = time.Parse(time.RFC3339, stamp); err != nil {
		return nil, fmt.Errorf("get document %s: created_at: %w", id, err)
	}

	seeds, err := namespaceSeeds(ns)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	res, err := provrdf.Unmarshal([]byte(nq), provrdf.FormatNQuads, provrdf.DecodeOptions{
		Namespaces: seeds,
		Logger:     s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &StoredDocument{
		DocumentInfo: info,
		Document:     res.Document,
		Diagnostics:  res.Diagnostics,
	}, nil
}

// FindByHash returns the info of the document with the given content hash.
// Returns sql.ErrNoRows (wrapped) if none is stored.
func (s *Store) FindByHash(ctx context.Context, hash string) (DocumentInfo, error) {
	info, err := scanInfo(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, hash))
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("find document by hash: %w", err)
	}
	return info, nil
}

// List returns every stored document in seq order.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return collectInfos(rows)
}

// FindByBundle returns the documents that contain a bundle with the given
// URI, in seq order.
func (s *Store) FindByBundle(ctx context.Context, bundleURI string) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.content_hash, d.record_count, d.bundle_count, d.seq, d.created_at
		FROM documents d
		JOIN document_bundles b ON b.document_id = d.id
		WHERE b.bundle_uri = ?
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC
	`, bundleURI)
	if err != nil {
		return nil, fmt.Errorf("query documents by bundle: %w", err)
	}
	return collectInfos(rows)
}

// Delete removes a document. Returns sql.ErrNoRows (wrapped) if it does not
// exist.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete document %s: %w", id, sql.ErrNoRows)
	}
	s.log.Info("document deleted", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInfo(row rowScanner) (DocumentInfo, error) {
	var (
		info  DocumentInfo
		stamp string
	)
	if err := row.Scan(&info.ID, &info.Name, &info.Hash, &info.RecordCount, &info.BundleCount, &info.Seq, &stamp); err != nil {
		return DocumentInfo{}, err
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("created_at: %w", err)
	}
	info.CreatedAt = t
	return info, nil
}

func collectInfos(rows *sql.Rows) ([]DocumentInfo, error) {
	defer rows.Close()

	infos := []DocumentInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return infos, nil
}

// namespaceSeeds decodes the stored prefix bindings, leaving out the
// built-in ones.
func namespaceSeeds(raw string) (map[string]string, error) {
	var ns map[string]string
	if err := json.Unmarshal([]byte(raw), &ns); err != nil {
		return nil, fmt.Errorf("namespaces: %w", err)
	}
	for p, uri := range builtinPrefixes {
		if ns[p] == uri {
			delete(ns, p)
		}
	}
	return ns, nil
}

func countRecords(doc *prov.Document) int {
	n := doc.Len()
	for _, b := range doc.Bundles() {
		n += b.Len()
	}
	return n
}
