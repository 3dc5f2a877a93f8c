package uuid

import (
	"context"
	"fmt"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// Page is a static page with its full revision history, newest first.  Date
// is the date of the oldest revision.
type Page struct {
	Instance          string    `json:"instance"`
	CurrentRevisionID *int      `json:"currentRevisionId"`
	RevisionIDs       []int     `json:"revisionIds"`
	Date              time.Time `json:"date"`
	LicenseID         int       `json:"licenseId"`
}

func (Page) Discriminator() Discriminator { return DiscriminatorPage }
func (Page) concrete()                    {}

type pageRow struct {
	Trashed           bool    `db:"trashed"`
	Subdomain         string  `db:"subdomain"`
	CurrentRevisionID *int    `db:"current_revision_id"`
	LicenseID         int     `db:"license_id"`
	Title             *string `db:"title"`
}

type revisionRow struct {
	ID   int       `db:"id"`
	Date time.Time `db:"date"`
}

func fetchPage(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qPage = `
            SELECT u.trashed, i.subdomain, p.current_revision_id, p.license_id, r.title
                FROM page_repository p
                JOIN uuid u ON u.id = p.id
                JOIN instance i ON i.id = p.instance_id
                LEFT JOIN page_revision r ON r.id = p.current_revision_id
                WHERE p.id = ?`
		qRevisions = `
            SELECT id, date
                FROM page_revision
                WHERE page_repository_id = ?
                ORDER BY date, id`
	)

	var (
		row       pageRow
		revisions []revisionRow
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("page", id, s.q.Get(ctx, &row, qPage, id))
		},
		func(ctx context.Context) error {
			return storeErr("page revisions", id, s.q.Select(ctx, &revisions, qRevisions, id))
		},
	)
	if err != nil {
		return nil, err
	}

	// A page is defined to have at least one revision.
	if len(revisions) == 0 {
		return nil, fmt.Errorf("page %d has no revisions: %w", id, ErrNotFound)
	}

	ids := make([]int, len(revisions))
	for i, r := range revisions {
		ids[i] = r.ID
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(nil, id, firstNonEmpty(row.Title)),
		Concrete: Page{
			Instance:          row.Subdomain,
			CurrentRevisionID: row.CurrentRevisionID,
			RevisionIDs:       newestFirst(ids),
			Date:              revisions[0].Date,
			LicenseID:         row.LicenseID,
		},
	}, nil
}
