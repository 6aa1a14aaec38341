package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/lib/pq"
)

// SQL queries for the append-only events table

const (
	// eventColumns is the projection shared by every read; scanEventRow depends on this order.
	eventColumns = `id, type, occurred_at, aggregate_ids, payload, seq`

	// querySaveEvent appends one event.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicate ids.
	// RETURNING seq retrieves the insertion-order tie-breaker.
	querySaveEvent = `
		INSERT INTO events (id, type, occurred_at, aggregate_ids, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING seq
	`

	// queryGetHistory fetches the complete log in replay order.
	queryGetHistory = `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY occurred_at ASC, seq ASC
	`

	// queryEventExists tells an unknown id apart from a rewrite rejected by its parent guard.
	queryEventExists = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`

	// queryPing is a cheap round trip used by health checks.
	queryPing = `SELECT 1`

	// queryTryAdvisoryLock takes a session-level lock keyed by the migration name.
	queryTryAdvisoryLock = `SELECT pg_try_advisory_lock(hashtext($1))`

	// queryAdvisoryUnlock releases the lock taken by queryTryAdvisoryLock.
	queryAdvisoryUnlock = `SELECT pg_advisory_unlock(hashtext($1))`
)

// buildEventListQuery compiles a type list and payload filter into a SELECT.
// Each filter entry becomes an exact jsonb equality on the nested path:
//
//	payload #> $n::text[] = $m::jsonb
//
// latest=true flips the order and keeps only the most recent row.
func buildEventListQuery(types []string, filter payload.Filter, latest bool) (string, []interface{}, error) {
	conds, err := filter.Conditions()
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	args := []interface{}{pq.Array(types)}

	sb.WriteString("SELECT ")
	sb.WriteString(eventColumns)
	sb.WriteString(" FROM events WHERE type = ANY($1)")

	for _, c := range conds {
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value for %s: %w", c.Path, err)
		}
		args = append(args, pq.Array([]string(c.Path)), string(raw))
		fmt.Fprintf(&sb, " AND payload #> $%d::text[] = $%d::jsonb", len(args)-1, len(args))
	}

	if latest {
		sb.WriteString(" ORDER BY occurred_at DESC, seq DESC LIMIT 1")
	} else {
		sb.WriteString(" ORDER BY occurred_at ASC, seq ASC")
	}

	return sb.String(), args, nil
}

// buildRewritePayloadQuery compiles a patch of dotted paths into nested jsonb_set calls,
// so that one UPDATE statement replaces every listed key and keeps the rest of the document.
// Only the payload column is touched. jsonb_set silently skips a path whose parent is missing,
// so every nested path also guards its parent in the WHERE clause and the row is left alone.
func buildRewritePayloadQuery(id string, patch map[string]interface{}) (string, []interface{}, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("empty payload patch")
	}

	// Filter.Conditions gives sorted, validated, normalised entries.
	conds, err := payload.Filter(patch).Conditions()
	if err != nil {
		return "", nil, err
	}

	args := []interface{}{id}
	expr := "payload"
	for _, c := range conds {
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode patch value for %s: %w", c.Path, err)
		}
		args = append(args, pq.Array([]string(c.Path)), string(raw))
		expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, true)", expr, len(args)-1, len(args))
	}

	var where strings.Builder
	where.WriteString(" WHERE id = $1")
	for _, c := range conds {
		if len(c.Path) < 2 {
			continue
		}
		args = append(args, pq.Array([]string(c.Path[:len(c.Path)-1])))
		fmt.Fprintf(&where, " AND jsonb_typeof(payload #> $%d::text[]) = 'object'", len(args))
	}

	return "UPDATE events SET payload = " + expr + where.String(), args, nil
}
