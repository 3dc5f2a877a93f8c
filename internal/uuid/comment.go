package uuid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// Comment is a thread entry.  ParentID is the parent comment, or the object
// the thread is attached to for a thread's first comment.
type Comment struct {
	AuthorID    int       `json:"authorId"`
	Title       *string   `json:"title"`
	Date        time.Time `json:"date"`
	Archived    bool      `json:"archived"`
	Content     string    `json:"content"`
	ParentID    int       `json:"parentId"`
	ChildrenIDs []int     `json:"childrenIds"`
}

func (Comment) Discriminator() Discriminator { return DiscriminatorComment }
func (Comment) concrete()                    {}

type commentRow struct {
	Trashed     bool      `db:"trashed"`
	AuthorID    int       `db:"author_id"`
	Title       *string   `db:"title"`
	Date        time.Time `db:"date"`
	Archived    bool      `db:"archived"`
	Content     *string   `db:"content"`
	ParentID    *int      `db:"parent_id"`
	UuidID      *int      `db:"uuid_id"`
	ParentTitle *string   `db:"parent_title"`
}

func fetchComment(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qComment = `
            SELECT u.trashed, c.author_id, c.title, c.date, c.archived, c.content,
                   c.parent_id, c.uuid_id, p.title AS parent_title
                FROM comment c
                LEFT JOIN comment p ON p.id = c.parent_id
                JOIN uuid u ON u.id = c.id
                WHERE c.id = ?`
		qChildren = `SELECT id FROM comment WHERE parent_id = ? ORDER BY id`
	)

	var (
		row      commentRow
		children []int
		path     []string
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("comment", id, s.q.Get(ctx, &row, qComment, id))
		},
		func(ctx context.Context) error {
			return storeErr("comment children", id, s.q.Select(ctx, &children, qChildren, id))
		},
		func(ctx context.Context) (err error) {
			path, err = s.commentContext(ctx, id)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	parentID := row.ParentID
	if parentID == nil {
		parentID = row.UuidID
	}
	if parentID == nil {
		return nil, fmt.Errorf("comment %d: %w", id, errMissingAnchor)
	}

	content := ""
	if row.Content != nil {
		content = *row.Content
	}

	// An untitled reply borrows its parent's title for the alias only.
	title := firstNonEmpty(row.Title, row.ParentTitle)
	if title == "" {
		title = strconv.Itoa(id)
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(path, id, title),
		Concrete: Comment{
			AuthorID:    row.AuthorID,
			Title:       row.Title,
			Date:        row.Date,
			Archived:    row.Archived,
			Content:     content,
			ParentID:    *parentID,
			ChildrenIDs: nonNil(children),
		},
	}, nil
}
