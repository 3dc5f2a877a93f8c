package uuid

import (
	"context"

	"github.com/yanizio/contentdb/internal/alias"
)

// TaxonomyTerm is a node of a taxonomy tree.  ChildrenIDs lists sub-terms
// by weight, then linked entities by position.
type TaxonomyTerm struct {
	Type        string  `json:"type"`
	Instance    string  `json:"instance"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Weight      *int    `json:"weight"`
	ParentID    *int    `json:"parentId"`
	ChildrenIDs []int   `json:"childrenIds"`
}

func (TaxonomyTerm) Discriminator() Discriminator { return DiscriminatorTaxonomyTerm }
func (TaxonomyTerm) concrete()                    {}

type taxonomyTermRow struct {
	Trashed     bool    `db:"trashed"`
	Type        string  `db:"type"`
	Subdomain   string  `db:"subdomain"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Weight      *int    `db:"weight"`
	ParentID    *int    `db:"parent_id"`
}

func fetchTaxonomyTerm(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qTerm = `
            SELECT u.trashed, ty.name AS type, i.subdomain, t.name,
                   tt.description, tt.weight, tt.parent_id
                FROM term_taxonomy tt
                JOIN uuid u ON u.id = tt.id
                JOIN term t ON t.id = tt.term_id
                JOIN taxonomy tx ON tx.id = tt.taxonomy_id
                JOIN type ty ON ty.id = tx.type_id
                JOIN instance i ON i.id = t.instance_id
                WHERE tt.id = ?`
		qChildren = `
            SELECT id
                FROM (
                    SELECT 0 AS grp, COALESCE(weight, 0) AS pos, id
                        FROM term_taxonomy
                        WHERE parent_id = ?
                    UNION ALL
                    SELECT 1, position, entity_id
                        FROM term_taxonomy_entity
                        WHERE term_taxonomy_id = ?
                ) c
                ORDER BY grp, pos, id`
	)

	var (
		row      taxonomyTermRow
		children []int
		path     []string
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("taxonomy term", id, s.q.Get(ctx, &row, qTerm, id))
		},
		func(ctx context.Context) error {
			return storeErr("taxonomy term children", id, s.q.Select(ctx, &children, qChildren, id, id))
		},
		func(ctx context.Context) (err error) {
			path, err = s.contextOf(ctx, id)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(path, id, row.Name),
		Concrete: TaxonomyTerm{
			Type:        row.Type,
			Instance:    row.Subdomain,
			Name:        row.Name,
			Description: row.Description,
			Weight:      row.Weight,
			ParentID:    row.ParentID,
			ChildrenIDs: nonNil(children),
		},
	}, nil
}
