package uuid

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// Query patterns, matched by sqlmock's regexp matcher after it collapses
// whitespace.
const (
	qLookup      = `^SELECT discriminator FROM uuid WHERE id = \?$`
	qCommentRow  = `FROM comment c LEFT JOIN comment p ON p\.id = c\.parent_id`
	qCommentKids = `^SELECT id FROM comment WHERE parent_id = \? ORDER BY id$`
	qCommentLink = `^SELECT parent_id, uuid_id FROM comment WHERE id = \?$`
	qAnchor      = `^SELECT term_id, entity_id FROM`
	qTermStep    = `^SELECT t\.name, tt\.parent_id FROM term_taxonomy tt`
	qPageRow     = `FROM page_repository p`
	qPageRevs    = `^SELECT id, date FROM page_revision WHERE page_repository_id = \?`
)

var day = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

// newMock returns a sqlx handle over sqlmock.  Pool-mode tests pass
// ordered=false because their sub-queries race.
func newMock(t *testing.T, ordered bool) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.MatchExpectationsInOrder(ordered)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func expectLookup(mock sqlmock.Sqlmock, id int, discriminator string) {
	mock.ExpectQuery(qLookup).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"discriminator"}).AddRow(discriminator))
}

type commentFixture struct {
	id          int
	title       any // nil or string
	parentTitle any // nil or string
	children    []int
}

// expectComment registers the three query groups of one comment
// resolution: the primary row, the children, and the context walk
// (comment 4 → comment 3 → object 100 → terms 20, 21, 22).
func expectComment(mock sqlmock.Sqlmock, f commentFixture) {
	mock.ExpectQuery(qCommentRow).
		WithArgs(f.id).
		WillReturnRows(sqlmock.NewRows([]string{
			"trashed", "author_id", "title", "date", "archived", "content",
			"parent_id", "uuid_id", "parent_title",
		}).AddRow(int64(0), 1, f.title, day, int64(0), "Hello", 3, nil, f.parentTitle))

	kids := sqlmock.NewRows([]string{"id"})
	for _, c := range f.children {
		kids.AddRow(c)
	}
	mock.ExpectQuery(qCommentKids).WithArgs(f.id).WillReturnRows(kids)

	expectCommentContext(mock, f.id)
}

func expectCommentContext(mock sqlmock.Sqlmock, id int) {
	mock.ExpectQuery(qCommentLink).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"parent_id", "uuid_id"}).AddRow(3, nil))
	mock.ExpectQuery(qCommentLink).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"parent_id", "uuid_id"}).AddRow(nil, 100))
	expectAnchor(mock, 100, 20, nil)
	expectTermChain(mock)
}

func expectAnchor(mock sqlmock.Sqlmock, id int, termID, entityID any) {
	mock.ExpectQuery(qAnchor).WithArgs(id, id, id).
		WillReturnRows(sqlmock.NewRows([]string{"term_id", "entity_id"}).AddRow(termID, entityID))
}

// expectTermChain registers Brüche (20) → Mathe (21) → Root (22).
func expectTermChain(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(qTermStep).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"name", "parent_id"}).AddRow("Brüche", 21))
	mock.ExpectQuery(qTermStep).WithArgs(21).
		WillReturnRows(sqlmock.NewRows([]string{"name", "parent_id"}).AddRow("Mathe", 22))
	mock.ExpectQuery(qTermStep).WithArgs(22).
		WillReturnRows(sqlmock.NewRows([]string{"name", "parent_id"}).AddRow("Root", nil))
}
