package uuid

import (
	"database/sql/driver"
	"fmt"
)

// Discriminator tags the concrete kind of a stored uuid.  The zero value is
// not a valid kind.
type Discriminator uint8

const (
	DiscriminatorAttachment Discriminator = iota + 1
	DiscriminatorBlogPost
	DiscriminatorComment
	DiscriminatorEntity
	DiscriminatorEntityRevision
	DiscriminatorPage
	DiscriminatorPageRevision
	DiscriminatorTaxonomyTerm
	DiscriminatorUser
)

// storage form, as found in uuid.discriminator
var discriminatorNames = [...]string{
	DiscriminatorAttachment:     "attachment",
	DiscriminatorBlogPost:       "blogPost",
	DiscriminatorComment:        "comment",
	DiscriminatorEntity:         "entity",
	DiscriminatorEntityRevision: "entityRevision",
	DiscriminatorPage:           "page",
	DiscriminatorPageRevision:   "pageRevision",
	DiscriminatorTaxonomyTerm:   "taxonomyTerm",
	DiscriminatorUser:           "user",
}

// serialized kind tag
var typeNames = [...]string{
	DiscriminatorAttachment:     "Attachment",
	DiscriminatorBlogPost:       "BlogPost",
	DiscriminatorComment:        "Comment",
	DiscriminatorEntity:         "Entity",
	DiscriminatorEntityRevision: "EntityRevision",
	DiscriminatorPage:           "Page",
	DiscriminatorPageRevision:   "PageRevision",
	DiscriminatorTaxonomyTerm:   "TaxonomyTerm",
	DiscriminatorUser:           "User",
}

var discriminatorByName = func() map[string]Discriminator {
	m := make(map[string]Discriminator, len(discriminatorNames))
	for _, d := range Discriminators() {
		m[discriminatorNames[d]] = d
	}
	return m
}()

// Discriminators lists every valid kind in declaration order.
func Discriminators() []Discriminator {
	out := make([]Discriminator, 0, len(discriminatorNames)-1)
	for d := DiscriminatorAttachment; d <= DiscriminatorUser; d++ {
		out = append(out, d)
	}
	return out
}

// ParseDiscriminator decodes the storage form.  Unknown values never default
// to a kind.
func ParseDiscriminator(raw string) (Discriminator, error) {
	if d, ok := discriminatorByName[raw]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDiscriminator, raw)
}

// Valid reports whether d is one of the declared kinds.
func (d Discriminator) Valid() bool {
	return d >= DiscriminatorAttachment && d <= DiscriminatorUser
}

// String returns the storage form, e.g. "blogPost".
func (d Discriminator) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Discriminator(%d)", uint8(d))
	}
	return discriminatorNames[d]
}

// TypeName returns the serialized kind tag, e.g. "BlogPost".
func (d Discriminator) TypeName() string {
	if !d.Valid() {
		return ""
	}
	return typeNames[d]
}

// Scan implements sql.Scanner for the uuid.discriminator column.
func (d *Discriminator) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrInvalidDiscriminator)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidDiscriminator, src)
	}
	parsed, err := ParseDiscriminator(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Discriminator) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDiscriminator, uint8(d))
	}
	return discriminatorNames[d], nil
}
