package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across clients and content_items using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultClient {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'client'::text AS type, c.id, c.name AS title,
				ts_headline('english', coalesce(c.industry, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.id AS client_id, c.status,
				ts_rank(c.fts, %s) AS rank
			FROM clients c
			WHERE c.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultContent {
		contentWhere := "ci.fts @@ " + tsQuery
		if q.FilterClientID != "" {
			contentWhere += fmt.Sprintf(" AND ci.client_id = $%d", argN)
			args = append(args, q.FilterClientID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'content'::text AS type, ci.id, ci.title,
				ts_headline('english', coalesce(ci.content_type, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				coalesce(ci.client_id, '') AS client_id, ci.status,
				ts_rank(ci.fts, %s) AS rank
			FROM content_items ci
			WHERE %s`, tsQuery, tsQuery, contentWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, client_id, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ClientID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ClientRecord, []ContentRecord, error) {
	clientRows, err := p.db.QueryContext(ctx, `
		SELECT id, code, name, coalesce(industry, ''), market, status
		FROM clients
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load clients: %w", err)
	}
	defer clientRows.Close()

	clients := make([]ClientRecord, 0)
	for clientRows.Next() {
		var c ClientRecord
		if err := clientRows.Scan(&c.ID, &c.Code, &c.Name, &c.Industry, &c.Market, &c.Status); err != nil {
			return nil, nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := clientRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate clients: %w", err)
	}

	contentRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content_type, coalesce(client_id, ''), status
		FROM content_items
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load content: %w", err)
	}
	defer contentRows.Close()

	contents := make([]ContentRecord, 0)
	for contentRows.Next() {
		var c ContentRecord
		if err := contentRows.Scan(&c.ID, &c.Title, &c.ContentType, &c.ClientID, &c.Status); err != nil {
			return nil, nil, fmt.Errorf("scan content: %w", err)
		}
		contents = append(contents, c)
	}
	if err := contentRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate content: %w", err)
	}

	return clients, contents, nil
}
