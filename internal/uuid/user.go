package uuid

import (
	"context"
	"time"

	"github.com/yanizio/contentdb/internal/alias"
)

// User is a registered account.
type User struct {
	Username    string     `json:"username"`
	Date        time.Time  `json:"date"`
	LastLogin   *time.Time `json:"lastLogin"`
	Description *string    `json:"description"`
}

func (User) Discriminator() Discriminator { return DiscriminatorUser }
func (User) concrete()                    {}

type userRow struct {
	Trashed     bool       `db:"trashed"`
	Username    string     `db:"username"`
	Date        time.Time  `db:"date"`
	LastLogin   *time.Time `db:"last_login"`
	Description *string    `db:"description"`
}

var userPrefix = []string{"user"}

func fetchUser(ctx context.Context, s *session, id int) (*Uuid, error) {
	const q = `
        SELECT u.trashed, us.username, us.date, us.last_login, us.description
            FROM user us
            JOIN uuid u ON u.id = us.id
            WHERE us.id = ?`

	var row userRow
	if err := s.q.Get(ctx, &row, q, id); err != nil {
		return nil, notFound("user", id, err)
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(userPrefix, id, row.Username),
		Concrete: User{
			Username:    row.Username,
			Date:        row.Date,
			LastLogin:   row.LastLogin,
			Description: row.Description,
		},
	}, nil
}
