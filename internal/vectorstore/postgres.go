package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// chunkRow is the pgvector-backed relational shape of a record. The vector
// column width must match the configured embedding dimension.
type chunkRow struct {
	bun.BaseModel `bun:"table:policy_chunks,alias:pc"`
	ID            string    `bun:"id,pk"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Source        string    `bun:"source,notnull"`
	ChunkIndex    int       `bun:"chunk_index,notnull"`
	Score         float32   `bun:"score,scanonly"`
}

// PostgresStore keeps records in a pgvector table through bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg *config.Config) (*PostgresStore, error) {
	dsn := cfg.Database.URL + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Database.Password)))

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Database.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) EnsureReady(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	_, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *PostgresStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, rec := range records {
		idx, _ := strconv.Atoi(rec.Metadata[models.MetaChunkKey])
		rows[i] = chunkRow{
			ID:         rec.ID,
			Content:    rec.Content,
			Embedding:  rec.Embedding,
			Source:     rec.Metadata[models.MetaSourceKey],
			ChunkIndex: idx,
		}
	}
	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("source = EXCLUDED.source").
		Set("chunk_index = EXCLUDED.chunk_index").
		Exec(ctx)
	return err
}

func (s *PostgresStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "content", "source", "chunk_index").
		ColumnExpr("1 - (embedding <=> ?) AS score", vector).
		OrderExpr("embedding <-> ?", vector).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, models.SearchResult{
			Record: models.Record{
				ID:      row.ID,
				Content: row.Content,
				Metadata: map[string]string{
					models.MetaSourceKey: row.Source,
					models.MetaChunkKey:  strconv.Itoa(row.ChunkIndex),
				},
			},
			Score: row.Score,
		})
	}
	return results, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
