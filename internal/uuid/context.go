// internal/uuid/context.go
//
// Context (ancestor path) resolution.
//
// Context
// -------
// The alias of an entity, taxonomy term, or comment is prefixed with the
// names of the taxonomy terms above it, e.g. "/mathe/brueche/123/title".
// Finding that path is a two-step walk:
//
//  1. Anchor: find the taxonomy term the object hangs off.  A term anchors
//     on its parent, an entity on its first linked term, and an entity with
//     no term link (an exercise inside a group) borrows its parent entity's
//     anchor.  Comments first climb their own parent chain to the comment
//     that carries the thread's object id.
//  2. Chain: climb term_taxonomy.parent_id from the anchor to the root,
//     collecting names.  The root itself is not part of the path.
//
// Every climb is an explicit loop bounded by session.maxDepth.  Revisiting
// an id is reported as ErrAncestorCycle, running out of depth as
// ErrAncestorDepth, both wrapped in *StoreError.  A comment thread that
// ends without an anchor object, or at a parent comment that no longer
// exists, is ErrNotFound.
package uuid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yanizio/contentdb/internal/database"
)

// DefaultMaxDepth bounds every ancestor walk.
const DefaultMaxDepth = 32

// session carries the executor and limits of one resolution.
type session struct {
	q        database.Executor
	maxDepth int
}

const anchorQuery = `
    SELECT term_id, entity_id
        FROM (
            SELECT 0 AS rnk, 0 AS pos, tt.parent_id AS term_id, NULL AS entity_id
                FROM term_taxonomy tt
                WHERE tt.id = ?
            UNION ALL
            SELECT 1, te.position, te.term_taxonomy_id, NULL
                FROM term_taxonomy_entity te
                WHERE te.entity_id = ?
            UNION ALL
            SELECT 2, el.` + "`order`" + `, NULL, el.parent_id
                FROM entity_link el
                WHERE el.child_id = ?
        ) a
        ORDER BY rnk, pos
        LIMIT 1`

type anchorRow struct {
	TermID   *int `db:"term_id"`
	EntityID *int `db:"entity_id"`
}

// contextOf returns the path used to prefix the alias of object id, or nil
// when the object sits outside the taxonomy.
func (s *session) contextOf(ctx context.Context, id int) ([]string, error) {
	seen := make(map[int]struct{}, 4)
	cur := id
	for depth := 0; depth < s.maxDepth; depth++ {
		if _, ok := seen[cur]; ok {
			return nil, storeErr("context anchor", id, fmt.Errorf("%w at %d", ErrAncestorCycle, cur))
		}
		seen[cur] = struct{}{}

		var row anchorRow
		err := s.q.Get(ctx, &row, anchorQuery, cur, cur, cur)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, storeErr("context anchor", id, err)
		}

		switch {
		case row.TermID != nil:
			return s.termPath(ctx, *row.TermID)
		case row.EntityID != nil:
			cur = *row.EntityID
		default:
			return nil, nil // root term
		}
	}
	return nil, storeErr("context anchor", id, ErrAncestorDepth)
}

type termStep struct {
	Name     string `db:"name"`
	ParentID *int   `db:"parent_id"`
}

// termPath climbs from termID to the root and returns the names top-down,
// root excluded.
func (s *session) termPath(ctx context.Context, termID int) ([]string, error) {
	const q = `
        SELECT t.name, tt.parent_id
            FROM term_taxonomy tt
            JOIN term t ON t.id = tt.term_id
            WHERE tt.id = ?`

	seen := make(map[int]struct{}, 8)
	var names []string
	cur := termID
	for depth := 0; depth < s.maxDepth; depth++ {
		if _, ok := seen[cur]; ok {
			return nil, storeErr("term path", termID, fmt.Errorf("%w at %d", ErrAncestorCycle, cur))
		}
		seen[cur] = struct{}{}

		var step termStep
		if err := s.q.Get(ctx, &step, q, cur); err != nil {
			return nil, storeErr("term path", termID, err)
		}
		if step.ParentID == nil {
			reverse(names)
			return names, nil
		}
		names = append(names, step.Name)
		cur = *step.ParentID
	}
	return nil, storeErr("term path", termID, ErrAncestorDepth)
}

type commentLink struct {
	ParentID *int `db:"parent_id"`
	UuidID   *int `db:"uuid_id"`
}

// commentContext finds the object the comment thread is attached to,
// walking parent comments of any depth, and returns that object's context.
func (s *session) commentContext(ctx context.Context, id int) ([]string, error) {
	const q = `SELECT parent_id, uuid_id FROM comment WHERE id = ?`

	seen := make(map[int]struct{}, 4)
	cur := id
	for depth := 0; depth < s.maxDepth; depth++ {
		if _, ok := seen[cur]; ok {
			return nil, storeErr("comment anchor", id, fmt.Errorf("%w at %d", ErrAncestorCycle, cur))
		}
		seen[cur] = struct{}{}

		// A dangling parent ends the thread just like a missing first row.
		var link commentLink
		if err := s.q.Get(ctx, &link, q, cur); err != nil {
			return nil, notFound("comment anchor", id, err)
		}

		switch {
		case link.UuidID != nil:
			return s.contextOf(ctx, *link.UuidID)
		case link.ParentID != nil:
			cur = *link.ParentID
		default:
			return nil, fmt.Errorf("comment anchor %d: %w", id, errMissingAnchor)
		}
	}
	return nil, storeErr("comment anchor", id, ErrAncestorDepth)
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
