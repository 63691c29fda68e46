package sqlStore

import (
	"context"
	"fmt"

	"github.com/akolanti/docqa/internal/domain/docModel"
)

const collectionColumns = `c.id, c.name, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM documents d WHERE d.collection_id = c.id)`

func (s *Store) CreateCollection(ctx context.Context, c docModel.Collection) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.Id, c.Name, c.Description, toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting collection: %w", err)
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, id string) (docModel.Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = ?`, id)
	c, err := scanCollection(row)
	if isNoRows(err) {
		return c, notFound("get collection", "collection", id)
	}
	return c, err
}

func (s *Store) ListCollections(ctx context.Context) ([]docModel.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections c ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var out []docModel.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCollection(ctx context.Context, c docModel.Collection) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, toMillis(c.UpdatedAt), c.Id)
	if err != nil {
		return fmt.Errorf("updating collection: %w", err)
	}
	return requireRow(res, "update collection", "collection", c.Id)
}

// DeleteCollection cascades to the collection's documents and chunks.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return requireRow(res, "delete collection", "collection", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(r scanner) (docModel.Collection, error) {
	var c docModel.Collection
	var created, updated int64
	if err := r.Scan(&c.Id, &c.Name, &c.Description, &created, &updated, &c.DocumentCount); err != nil {
		return c, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}
