package sqlStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akolanti/docqa/internal/domain/docModel"
)

const documentColumns = `id, collection_id, filename, format, file_path, size_bytes, status, error_message,
	page_count, word_count, chunk_count, indexed, uploaded_at, processed_at`

func (s *Store) CreateDocument(ctx context.Context, d docModel.Document) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Id, d.CollectionId, d.Filename, string(d.Format), d.FilePath, d.SizeBytes, string(d.Status), d.ErrorMessage,
		d.PageCount, d.WordCount, d.ChunkCount, d.Indexed, toMillis(d.UploadedAt), processedAt(d))
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (docModel.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if isNoRows(err) {
		return d, notFound("get document", "document", id)
	}
	return d, err
}

func (s *Store) ListDocuments(ctx context.Context, collectionId string) ([]docModel.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection_id = ? ORDER BY uploaded_at DESC, id`, collectionId)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []docModel.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDocument(ctx context.Context, d docModel.Document) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET
		filename = ?, format = ?, file_path = ?, size_bytes = ?, status = ?, error_message = ?,
		page_count = ?, word_count = ?, chunk_count = ?, indexed = ?, processed_at = ?
		WHERE id = ?`,
		d.Filename, string(d.Format), d.FilePath, d.SizeBytes, string(d.Status), d.ErrorMessage,
		d.PageCount, d.WordCount, d.ChunkCount, d.Indexed, processedAt(d), d.Id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return requireRow(res, "update document", "document", d.Id)
}

// DeleteDocument cascades to the document's chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireRow(res, "delete document", "document", id)
}

func processedAt(d docModel.Document) sql.NullInt64 {
	if d.ProcessedAt == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*d.ProcessedAt), Valid: true}
}

func scanDocument(r scanner) (docModel.Document, error) {
	var d docModel.Document
	var format, status string
	var uploaded int64
	var processed sql.NullInt64
	err := r.Scan(&d.Id, &d.CollectionId, &d.Filename, &format, &d.FilePath, &d.SizeBytes, &status, &d.ErrorMessage,
		&d.PageCount, &d.WordCount, &d.ChunkCount, &d.Indexed, &uploaded, &processed)
	if err != nil {
		return d, err
	}
	d.Format = docModel.Format(format)
	d.Status = docModel.DocumentStatus(status)
	d.UploadedAt = fromMillis(uploaded)
	if processed.Valid {
		t := fromMillis(processed.Int64)
		d.ProcessedAt = &t
	}
	return d, nil
}
