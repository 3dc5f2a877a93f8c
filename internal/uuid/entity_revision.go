package uuid

import (
	"context"
	"fmt"
	"time"
)

// EntityRevision is one saved version of an Entity.  The typed fields are
// read from the revision's key-value fields and default to "".
type EntityRevision struct {
	Type            string    `json:"type"`
	AuthorID        int       `json:"authorId"`
	RepositoryID    int       `json:"repositoryId"`
	Date            time.Time `json:"date"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Changes         string    `json:"changes"`
	MetaTitle       string    `json:"metaTitle"`
	MetaDescription string    `json:"metaDescription"`
}

func (EntityRevision) Discriminator() Discriminator { return DiscriminatorEntityRevision }
func (EntityRevision) concrete()                    {}

type entityRevisionRow struct {
	Trashed      bool      `db:"trashed"`
	AuthorID     int       `db:"author_id"`
	RepositoryID int       `db:"repository_id"`
	Date         time.Time `db:"date"`
	Type         string    `db:"type"`
}

type revisionField struct {
	Field string  `db:"field"`
	Value *string `db:"value"`
}

// revisionFields is the key-value bag of one entity revision.
type revisionFields map[string]string

func (f revisionFields) getOr(key, fallback string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

func fetchEntityRevision(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qRevision = `
            SELECT u.trashed, r.author_id, r.repository_id, r.date, t.name AS type
                FROM entity_revision r
                JOIN uuid u ON u.id = r.id
                JOIN entity e ON e.id = r.repository_id
                JOIN type t ON t.id = e.type_id
                WHERE r.id = ?`
		qFields = `
            SELECT field, value
                FROM entity_revision_field
                WHERE entity_revision_id = ?
                ORDER BY field, id`
	)

	var (
		row    entityRevisionRow
		fields []revisionField
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("entity revision", id, s.q.Get(ctx, &row, qRevision, id))
		},
		func(ctx context.Context) error {
			return storeErr("entity revision fields", id, s.q.Select(ctx, &fields, qFields, id))
		},
	)
	if err != nil {
		return nil, err
	}

	bag := make(revisionFields, len(fields))
	for _, f := range fields {
		// NULL values read as absent so the field falls back to its default.
		if f.Value != nil {
			bag[f.Field] = *f.Value
		}
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   fmt.Sprintf("/entity/repository/compare/%d/%d", row.RepositoryID, id),
		Concrete: EntityRevision{
			Type:            row.Type,
			AuthorID:        row.AuthorID,
			RepositoryID:    row.RepositoryID,
			Date:            row.Date,
			Title:           bag.getOr("title", ""),
			Content:         bag.getOr("content", ""),
			Changes:         bag.getOr("changes", ""),
			MetaTitle:       bag.getOr("meta_title", ""),
			MetaDescription: bag.getOr("meta_description", ""),
		},
	}, nil
}
