package uuid

import (
	"context"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// BlogPost is a post in a blog category.  Publish is nil for drafts.
type BlogPost struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Date       time.Time  `json:"date"`
	AuthorID   int        `json:"authorId"`
	CategoryID int        `json:"categoryId"`
	Publish    *time.Time `json:"publish"`
}

func (BlogPost) Discriminator() Discriminator { return DiscriminatorBlogPost }
func (BlogPost) concrete()                    {}

type blogPostRow struct {
	Trashed    bool       `db:"trashed"`
	Title      string     `db:"title"`
	Content    string     `db:"content"`
	Date       time.Time  `db:"date"`
	AuthorID   int        `db:"author_id"`
	CategoryID int        `db:"category_id"`
	Publish    *time.Time `db:"publish"`
}

func fetchBlogPost(ctx context.Context, s *session, id int) (*Uuid, error) {
	const q = `
        SELECT u.trashed, b.title, b.content, b.date, b.author_id, b.category_id, b.publish
            FROM blog_post b
            JOIN uuid u ON u.id = b.id
            WHERE b.id = ?`

	var row blogPostRow
	if err := s.q.Get(ctx, &row, q, id); err != nil {
		return nil, notFound("blog post", id, err)
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(nil, id, row.Title),
		Concrete: BlogPost{
			Title:      row.Title,
			Content:    row.Content,
			Date:       row.Date,
			AuthorID:   row.AuthorID,
			CategoryID: row.CategoryID,
			Publish:    row.Publish,
		},
	}, nil
}
