package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const selectTableInfo = `
SELECT
    t.id,
    t.name,
    count(c.id) AS len
FROM column_info AS c
JOIN table_info AS t ON t.id = c.table_id
GROUP BY t.id
ORDER BY t.id`

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Statement is the cached insert for one table.
type Statement struct {
	TableID uint32
	Table   string
	SQL     string
	Columns int
}

// Cache maps table identifiers to insert statements. It is built once per
// run by PrepareCache and never modified afterwards.
type Cache struct {
	stmts map[uint32]Statement
}

// PrepareCache introspects table_info and column_info and synthesizes one
// positional insert per table.
func PrepareCache(ctx context.Context, q Queryer) (*Cache, error) {
	rows, err := q.QueryContext(ctx, selectTableInfo)
	if err != nil {
		return nil, classifyStoreErr("failed to read table metadata", err)
	}
	defer rows.Close()

	stmts := make(map[uint32]Statement)
	for rows.Next() {
		var s Statement
		if err := rows.Scan(&s.TableID, &s.Table, &s.Columns); err != nil {
			return nil, classifyStoreErr("failed to scan table metadata", err)
		}
		s.SQL = insertSQL(s.Table, s.Columns)
		stmts[s.TableID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr("failed to read table metadata", err)
	}

	return &Cache{stmts: stmts}, nil
}

func insertSQL(table string, columns int) string {
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.TrimSuffix(strings.Repeat("?, ", columns), ", "))
}

// Get returns the statement for id or an ErrCacheMiss error.
func (c *Cache) Get(id uint32) (Statement, error) {
	s, ok := c.stmts[id]
	if !ok {
		return Statement{}, newError(ErrCacheMiss, "expected a cached sql statement for %d", id)
	}
	return s, nil
}

// Len returns the number of cached statements.
func (c *Cache) Len() int { return len(c.stmts) }

// IDs returns the cached table identifiers in ascending order.
func (c *Cache) IDs() []uint32 {
	ids := make([]uint32, 0, len(c.stmts))
	for id := range c.stmts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
