package uuid

import (
	"context"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// Entity is a versioned learning resource (article, exercise, course, ...).
// Type is the raw entity type name, e.g. "text-exercise".
type Entity struct {
	Type              string    `json:"type"`
	Instance          string    `json:"instance"`
	Date              time.Time `json:"date"`
	LicenseID         int       `json:"licenseId"`
	CurrentRevisionID *int      `json:"currentRevisionId"`
	RevisionIDs       []int     `json:"revisionIds"`
	TaxonomyTermIDs   []int     `json:"taxonomyTermIds"`
	ParentIDs         []int     `json:"parentIds"`
	ChildrenIDs       []int     `json:"childrenIds"`
}

func (Entity) Discriminator() Discriminator { return DiscriminatorEntity }
func (Entity) concrete()                    {}

type entityRow struct {
	Trashed           bool      `db:"trashed"`
	Type              string    `db:"name"`
	Date              time.Time `db:"date"`
	Subdomain         string    `db:"subdomain"`
	CurrentRevisionID *int      `db:"current_revision_id"`
	LicenseID         int       `db:"license_id"`
	Title             *string   `db:"title"`
}

func fetchEntity(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qEntity = `
            SELECT u.trashed, t.name, e.date, i.subdomain, e.current_revision_id,
                   e.license_id, f.value AS title
                FROM entity e
                JOIN uuid u ON u.id = e.id
                JOIN type t ON t.id = e.type_id
                JOIN instance i ON i.id = e.instance_id
                LEFT JOIN entity_revision_field f
                       ON f.entity_revision_id = e.current_revision_id
                      AND f.field = 'title'
                WHERE e.id = ?`
		qRevisions = `SELECT id FROM entity_revision WHERE repository_id = ? ORDER BY date, id`
		qTerms     = `
            SELECT term_taxonomy_id
                FROM term_taxonomy_entity
                WHERE entity_id = ?
                ORDER BY position, term_taxonomy_id`
		qParents  = `SELECT parent_id FROM entity_link WHERE child_id = ? ORDER BY parent_id`
		qChildren = "SELECT child_id FROM entity_link WHERE parent_id = ? ORDER BY `order`, child_id"
	)

	var (
		row                                 entityRow
		revisions, terms, parents, children []int
		path                                []string
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("entity", id, s.q.Get(ctx, &row, qEntity, id))
		},
		func(ctx context.Context) error {
			return storeErr("entity revisions", id, s.q.Select(ctx, &revisions, qRevisions, id))
		},
		func(ctx context.Context) error {
			return storeErr("entity terms", id, s.q.Select(ctx, &terms, qTerms, id))
		},
		func(ctx context.Context) error {
			return storeErr("entity parents", id, s.q.Select(ctx, &parents, qParents, id))
		},
		func(ctx context.Context) error {
			return storeErr("entity children", id, s.q.Select(ctx, &children, qChildren, id))
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
		Alias:   alias.Format(path, id, firstNonEmpty(row.Title)),
		Concrete: Entity{
			Type:              row.Type,
			Instance:          row.Subdomain,
			Date:              row.Date,
			LicenseID:         row.LicenseID,
			CurrentRevisionID: row.CurrentRevisionID,
			RevisionIDs:       newestFirst(revisions),
			TaxonomyTermIDs:   nonNil(terms),
			ParentIDs:         nonNil(parents),
			ChildrenIDs:       nonNil(children),
		},
	}, nil
}
