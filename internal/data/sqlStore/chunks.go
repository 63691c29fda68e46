package sqlStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akolanti/docqa/internal/domain/docModel"
)

// SaveChunks replaces the document's chunks as one unit of work.
func (s *Store) SaveChunks(ctx context.Context, documentId string, chunks []docModel.Chunk) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentId); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
			(id, document_id, chunk_index, text, char_start, char_end, locator, vector_id, embedding_model, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			_, err := stmt.ExecContext(ctx, c.Id, documentId, c.Index, c.Text, c.CharStart, c.CharEnd, c.Locator,
				nullable(c.VectorId), nullable(c.EmbeddingModel), toMillis(c.CreatedAt))
			if err != nil {
				return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
			}
		}
		return nil
	})
}

func (s *Store) ListChunks(ctx context.Context, documentId string) ([]docModel.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document_id, chunk_index, text, char_start, char_end, locator,
		vector_id, embedding_model, created_at FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentId)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var out []docModel.Chunk
	for rows.Next() {
		var c docModel.Chunk
		var vectorId, model sql.NullString
		var created int64
		err := rows.Scan(&c.Id, &c.DocumentId, &c.Index, &c.Text, &c.CharStart, &c.CharEnd, &c.Locator,
			&vectorId, &model, &created)
		if err != nil {
			return nil, err
		}
		c.VectorId = vectorId.String
		c.EmbeddingModel = model.String
		c.CreatedAt = fromMillis(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteChunks(ctx context.Context, documentId string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentId); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
