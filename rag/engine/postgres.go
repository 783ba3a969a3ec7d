package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mudler/localnotes/rag/types"
)

// PostgresDB is a persistent full-text engine built on the PostgreSQL
// tsvector machinery. One table per notebook; metadata is kept as
// jsonb so topic and label survive a round-trip.
type PostgresDB struct {
	pool           *pgxpool.Pool
	collectionName string
	tableName      string
}

// NewPostgresDBCollection creates a new PostgreSQL-based collection
func NewPostgresDBCollection(collectionName, databaseURL string) (*PostgresDB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for PostgreSQL engine")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &PostgresDB{
		pool:           pool,
		collectionName: collectionName,
		tableName:      sanitizeTableName(collectionName),
	}

	if err := pg.setupDatabase(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return pg, nil
}

func sanitizeTableName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return "localnotes_" + b.String()
}

func (pg *PostgresDB) setupDatabase() error {
	ctx := context.Background()

	_, err := pg.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED
		)`, pg.tableName))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = pg.pool.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_tsv_idx ON %s USING GIN (tsv)`,
		pg.tableName, pg.tableName))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (pg *PostgresDB) Store(s string, metadata map[string]string) error {
	if s == "" {
		return fmt.Errorf("empty string")
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = pg.pool.Exec(context.Background(),
		fmt.Sprintf(`INSERT INTO %s (content, metadata) VALUES ($1, $2)`, pg.tableName),
		s, meta)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	return nil
}

func (pg *PostgresDB) Search(s string, similarEntries int) ([]types.Result, error) {
	rows, err := pg.pool.Query(context.Background(),
		fmt.Sprintf(`
			SELECT id, content, metadata, ts_rank(tsv, websearch_to_tsquery('english', $1)) AS rank
			FROM %s
			WHERE tsv @@ websearch_to_tsquery('english', $1)
			ORDER BY rank DESC
			LIMIT $2`, pg.tableName),
		s, similarEntries)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	results := []types.Result{}
	for rows.Next() {
		var (
			id      int
			content string
			meta    []byte
			rank    float32
		)
		if err := rows.Scan(&id, &content, &meta, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		metadata := map[string]string{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		results = append(results, types.Result{
			ID:            fmt.Sprint(id),
			Content:       content,
			Metadata:      metadata,
			FullTextScore: rank,
		})
	}

	return results, rows.Err()
}

func (pg *PostgresDB) Reset() error {
	_, err := pg.pool.Exec(context.Background(),
		fmt.Sprintf(`TRUNCATE TABLE %s RESTART IDENTITY`, pg.tableName))
	if err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}
	return nil
}

func (pg *PostgresDB) Count() int {
	var count int
	err := pg.pool.QueryRow(context.Background(),
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pg.tableName)).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

// Close releases the connection pool.
func (pg *PostgresDB) Close() {
	pg.pool.Close()
}
