package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/vectors"
)

// Ensure vectorIndex implements the interface.
var _ driven.VectorIndex = (*vectorIndex)(nil)

// vectorIndex is the SQLite-backed driven.VectorIndex. Embeddings are
// stored as little-endian float32 blobs; search loads them and ranks by
// exact dot product, so ordering is reproducible bit for bit.
type vectorIndex struct {
	store *Store
}

// Upsert inserts or replaces a batch of entries in one transaction. The
// per-document lock keeps concurrent writers to the same document out; the
// transaction makes the batch all-or-nothing for readers.
func (idx *vectorIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, unlock := range idx.lockDocuments(entries) {
		defer unlock()
	}

	tx, err := idx.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrIndexTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	modelID, dimension, err := idx.metaForUpdate(ctx, tx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.ChunkID == "" || e.DocumentID == "" {
			return fmt.Errorf("%w: entry missing chunk or document ID", domain.ErrIndexTransaction)
		}
		if len(e.Embedding) == 0 {
			return fmt.Errorf("%w: entry %s has no embedding", domain.ErrIndexTransaction, e.ChunkID)
		}
		if modelID == "" {
			modelID, dimension = e.ModelID, len(e.Embedding)
		}
		if e.ModelID != modelID {
			return fmt.Errorf("%w: index holds %q, batch has %q",
				domain.ErrModelMismatch, modelID, e.ModelID)
		}
		if len(e.Embedding) != dimension {
			return fmt.Errorf("%w: dimension %d does not match index dimension %d",
				domain.ErrIndexTransaction, len(e.Embedding), dimension)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, model_id, dimension) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET model_id = excluded.model_id, dimension = excluded.dimension
	`, modelID, dimension); err != nil {
		return fmt.Errorf("%w: saving index meta: %w", domain.ErrIndexTransaction, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (chunk_id, document_id, ordinal, content, source_filename, embedding, model_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			ordinal = excluded.ordinal,
			content = excluded.content,
			source_filename = excluded.source_filename,
			embedding = excluded.embedding,
			model_id = excluded.model_id
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrIndexTransaction, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.DocumentID, e.Ordinal,
			e.Text, e.SourceFilename, vectors.ToBytes(e.Embedding), e.ModelID); err != nil {
			return fmt.Errorf("%w: saving entry %s: %w", domain.ErrIndexTransaction, e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing batch: %w", domain.ErrIndexTransaction, err)
	}
	return nil
}

// DeleteByDocument transactionally removes every entry for the document.
func (idx *vectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	unlock := idx.store.docLocks.Lock(documentID)
	defer unlock()

	if _, err := idx.store.db.ExecContext(ctx,
		"DELETE FROM index_entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("%w: deleting entries for %s: %w", domain.ErrIndexTransaction, documentID, err)
	}
	return nil
}

// Search ranks all entries against the query vector. The single SELECT runs
// against one WAL snapshot, so a concurrently committing batch is either
// fully visible or not at all.
func (idx *vectorIndex) Search(ctx context.Context, query []float32, topK int) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	// A populated index only scores query vectors of its own dimension.
	var dimension int
	err := idx.store.db.QueryRowContext(ctx, `
		SELECT dimension FROM index_meta
		WHERE id = 1 AND EXISTS (SELECT 1 FROM index_entries)
	`).Scan(&dimension)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Empty index, nothing to mismatch against.
	case err != nil:
		return nil, fmt.Errorf("reading index meta: %w", err)
	case len(query) != dimension:
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			domain.ErrModelMismatch, len(query), dimension)
	}

	rows, err := idx.store.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, ordinal, content, source_filename, embedding
		FROM index_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var hits domain.RetrievalResult
	for rows.Next() {
		var h domain.RetrievedChunk
		var blob []byte
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.Ordinal,
			&h.Text, &h.SourceFilename, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		h.Score = vectors.Dot(vectors.FromBytes(blob), query)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Stats computes collection statistics from the index contents.
func (idx *vectorIndex) Stats(ctx context.Context) (domain.CollectionStats, error) {
	var stats domain.CollectionStats

	err := idx.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT document_id) FROM index_entries
	`).Scan(&stats.TotalChunks, &stats.TotalDocuments)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("counting entries: %w", err)
	}

	err = idx.store.db.QueryRowContext(ctx,
		"SELECT model_id, dimension FROM index_meta WHERE id = 1",
	).Scan(&stats.ModelID, &stats.EmbeddingDimension)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.CollectionStats{}, fmt.Errorf("reading index meta: %w", err)
	}

	return stats, nil
}

// Close is handled by the owning Store.
func (idx *vectorIndex) Close() error {
	return nil
}

// metaForUpdate reads the pinned model and dimension inside the
// transaction.
func (idx *vectorIndex) metaForUpdate(ctx context.Context, tx *sql.Tx) (string, int, error) {
	var modelID string
	var dimension int
	err := tx.QueryRowContext(ctx,
		"SELECT model_id, dimension FROM index_meta WHERE id = 1",
	).Scan(&modelID, &dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("%w: reading index meta: %w", domain.ErrIndexTransaction, err)
	}
	return modelID, dimension, nil
}

// lockDocuments acquires the per-document locks for every distinct document
// in the batch, in sorted order so concurrent batches cannot deadlock.
func (idx *vectorIndex) lockDocuments(entries []domain.IndexEntry) []func() {
	seen := make(map[string]struct{})
	ids := make([]string, 0, 1)
	for _, e := range entries {
		if _, ok := seen[e.DocumentID]; !ok {
			seen[e.DocumentID] = struct{}{}
			ids = append(ids, e.DocumentID)
		}
	}
	sort.Strings(ids)

	unlocks := make([]func(), 0, len(ids))
	for _, id := range ids {
		unlocks = append(unlocks, idx.store.docLocks.Lock(id))
	}
	return unlocks
}
