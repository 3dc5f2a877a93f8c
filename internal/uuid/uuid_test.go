package uuid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUuid_MarshalFlatEnvelope(t *testing.T) {
	title := "Reply"
	u := Uuid{
		ID:      4,
		Trashed: true,
		Alias:   "/mathe/4/reply",
		Concrete: Comment{
			AuthorID:    1,
			Title:       &title,
			Date:        day,
			Content:     "Hello",
			ParentID:    3,
			ChildrenIDs: nonNil(nil),
		},
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "Comment", got["__typename"])
	assert.Equal(t, float64(4), got["id"])
	assert.Equal(t, true, got["trashed"])
	assert.Equal(t, "/mathe/4/reply", got["alias"])
	assert.Equal(t, "Reply", got["title"])
	assert.Equal(t, float64(3), got["parentId"])
	assert.Equal(t, []any{}, got["childrenIds"])
	assert.NotContains(t, got, "Concrete")

	// The tag leads the object.
	assert.Contains(t, string(raw[:16]), `"__typename"`)
}

func TestUuid_MarshalPointerAndValueAgree(t *testing.T) {
	u := &Uuid{ID: 9, Alias: "/user/9/ada", Concrete: User{Username: "ada", Date: day}}

	byPtr, err := json.Marshal(u)
	require.NoError(t, err)
	byVal, err := json.Marshal(*u)
	require.NoError(t, err)
	assert.JSONEq(t, string(byPtr), string(byVal))
	assert.Equal(t, DiscriminatorUser, u.Discriminator())
}

func TestUuid_MarshalWithoutPayloadFails(t *testing.T) {
	_, err := json.Marshal(Uuid{ID: 1})
	assert.Error(t, err)
	assert.Equal(t, Discriminator(0), (&Uuid{}).Discriminator())
}

func TestNewestFirst(t *testing.T) {
	assert.Equal(t, []int{3, 2, 1}, newestFirst([]int{1, 2, 3}))
	assert.Equal(t, []int{}, newestFirst(nil))
}
