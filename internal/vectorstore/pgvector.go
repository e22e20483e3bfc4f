package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docsync-rag/internal/models"
)

// VectorRow is one stored chunk embedding. The vector column dimension
// comes from config at table creation and must match the embedding model.
type VectorRow struct {
	bun.BaseModel `bun:"table:vectors,alias:v"`
	ID            string    `bun:"id,pk"`
	Namespace     string    `bun:"namespace,notnull"`
	DocumentID    string    `bun:"document_id,notnull"`
	FileName      string    `bun:"file_name"`
	ChunkIndex    int       `bun:"chunk_index"`
	Preview       string    `bun:"preview"`
	Embedding     []float32 `bun:"embedding,notnull"`
}

// PgvectorStore keeps vectors in a Postgres table with the pgvector
// extension, one row per chunk, namespaced by column.
type PgvectorStore struct {
	db        *bun.DB
	namespace string
	dimension int
}

func NewPgvectorStore(ctx context.Context, url, password, namespace string, dimension int, debug bool) (*PgvectorStore, error) {
	dsn := url + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	store := &PgvectorStore{db: db, namespace: namespace, dimension: dimension}
	if err := store.init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PgvectorStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	// The vector column width is per-deployment, so the table is created
	// with explicit DDL instead of the model's tags.
	if _, err := s.db.ExecContext(ctx, vectorsTableDDL(s.dimension)); err != nil {
		return fmt.Errorf("create vectors table: %w", err)
	}
	return nil
}

// vectorsTableDDL renders the vectors table with the configured
// embedding width.
func vectorsTableDDL(dimension int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vectors (
	id text PRIMARY KEY,
	namespace text NOT NULL,
	document_id text NOT NULL,
	file_name text,
	chunk_index bigint,
	preview text,
	embedding vector(%d) NOT NULL
)`, dimension)
}

// checkDimension rejects embeddings that would fail the column width
// with a clearer error than the Postgres one.
func (s *PgvectorStore) checkDimension(values []float32) error {
	if len(values) != s.dimension {
		return fmt.Errorf("embedding has %d dimensions, store is configured for %d", len(values), s.dimension)
	}
	return nil
}

func (s *PgvectorStore) Upsert(ctx context.Context, v Vector) error {
	if err := s.checkDimension(v.Values); err != nil {
		return err
	}
	row := &VectorRow{
		ID:         v.ID,
		Namespace:  s.namespace,
		DocumentID: v.DocumentID,
		FileName:   v.FileName,
		ChunkIndex: v.ChunkIndex,
		Preview:    v.Preview,
		Embedding:  v.Values,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("embedding = EXCLUDED.embedding").
		Set("preview = EXCLUDED.preview").
		Set("file_name = EXCLUDED.file_name").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("document_id = EXCLUDED.document_id").
		Exec(ctx)
	return err
}

func (s *PgvectorStore) Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error) {
	var rows []VectorRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "file_name", "preview").
		Where("namespace = ?", s.namespace).
		OrderExpr("embedding <=> ?::vector", vectorLiteral(vector)).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]models.QueryMatch, 0, len(rows))
	for i, row := range rows {
		matches = append(matches, models.QueryMatch{
			VectorID: row.ID,
			// Postgres orders by distance; expose rank order as a
			// descending pseudo-score.
			Score:    float32(len(rows) - i),
			FileName: row.FileName,
			Preview:  row.Preview,
		})
	}
	return matches, nil
}

func (s *PgvectorStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*VectorRow)(nil)).
		Where("namespace = ?", s.namespace).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

func (s *PgvectorStore) DeleteWhere(ctx context.Context, documentID string) error {
	_, err := s.db.NewDelete().
		Model((*VectorRow)(nil)).
		Where("namespace = ?", s.namespace).
		Where("document_id = ?", documentID).
		Exec(ctx)
	return err
}

func (s *PgvectorStore) Close() error {
	return s.db.Close()
}

// vectorLiteral renders a pgvector input literal like [0.1,0.2,0.3].
func vectorLiteral(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
