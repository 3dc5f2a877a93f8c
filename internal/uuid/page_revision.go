package uuid

import (
	"context"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// PageRevision is one saved version of a Page.
type PageRevision struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Date         time.Time `json:"date"`
	AuthorID     int       `json:"authorId"`
	RepositoryID int       `json:"repositoryId"`
}

func (PageRevision) Discriminator() Discriminator { return DiscriminatorPageRevision }
func (PageRevision) concrete()                    {}

type pageRevisionRow struct {
	Trashed      bool      `db:"trashed"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	Date         time.Time `db:"date"`
	AuthorID     int       `db:"author_id"`
	RepositoryID int       `db:"page_repository_id"`
}

func fetchPageRevision(ctx context.Context, s *session, id int) (*Uuid, error) {
	const q = `
        SELECT u.trashed, r.title, r.content, r.date, r.author_id, r.page_repository_id
            FROM page_revision r
            JOIN uuid u ON u.id = r.id
            WHERE r.id = ?`

	var row pageRevisionRow
	if err := s.q.Get(ctx, &row, q, id); err != nil {
		return nil, notFound("page revision", id, err)
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(nil, id, row.Title),
		Concrete: PageRevision{
			Title:        row.Title,
			Content:      row.Content,
			Date:         row.Date,
			AuthorID:     row.AuthorID,
			RepositoryID: row.RepositoryID,
		},
	}, nil
}
