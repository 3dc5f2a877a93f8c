// Package uuid resolves numeric content identifiers into typed records.
//
// Context
// -------
// Every piece of content (comments, pages, entities, revisions, taxonomy
// terms, users, attachments, and blog posts) shares one id space, kept in
// the `uuid` table together with a discriminator and a trashed flag.  The
// Engine looks up the discriminator, hands the id to the kind resolver
// registered for it, and returns a *Uuid envelope.
//
// Kind resolvers are written once against database.Executor.  Run on a
// database.Pool they fan their independent queries out; run on a
// database.Tx they issue them one by one on the same transaction.  The
// result is the same either way for the same database state.
//
// Notes
// -----
// • The envelope's discriminator is read off its concrete payload, so the
//   tag and the payload shape cannot disagree.
// • Nothing here caches.  Each call builds a fresh envelope.
// • Oxford commas, two spaces after periods.
package uuid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Uuid is the resolved envelope shared by every kind.
type Uuid struct {
	ID       int
	Trashed  bool
	Alias    string
	Concrete ConcreteUuid
}

// ConcreteUuid is implemented only by the payload types in this package:
// Attachment, BlogPost, Comment, Entity, EntityRevision, Page, PageRevision,
// TaxonomyTerm, and User.
type ConcreteUuid interface {
	Discriminator() Discriminator
	concrete()
}

// Discriminator returns the kind of the concrete payload.
func (u *Uuid) Discriminator() Discriminator {
	if u.Concrete == nil {
		return 0
	}
	return u.Concrete.Discriminator()
}

type envelopeHead struct {
	TypeName string `json:"__typename"`
	ID       int    `json:"id"`
	Trashed  bool   `json:"trashed"`
	Alias    string `json:"alias"`
}

// MarshalJSON writes one flat object: the kind tag, the shared fields, and
// the payload fields at the same level.
func (u Uuid) MarshalJSON() ([]byte, error) {
	d := u.Discriminator()
	if !d.Valid() {
		return nil, fmt.Errorf("uuid %d: no concrete payload", u.ID)
	}

	head, err := json.Marshal(envelopeHead{
		TypeName: d.TypeName(),
		ID:       u.ID,
		Trashed:  u.Trashed,
		Alias:    u.Alias,
	})
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(u.Concrete)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("uuid %d: payload is not an object", u.ID)
	}
	if string(body) == "{}" {
		return head, nil
	}

	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

// newestFirst reverses ids read oldest-first.
func newestFirst(ids []int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// nonNil keeps empty id lists serialized as [] instead of null.
func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

// firstNonEmpty returns the first non-nil, non-empty string.
func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
