package uuid

import (
	"context"

	"github.com/yanizio/contentdb/internal/alias"
)

// Attachment is an uploaded file container.
type Attachment struct {
	Instance string           `json:"instance"`
	Type     string           `json:"type"`
	Files    []AttachmentFile `json:"files"`
}

// AttachmentFile is one stored file of an Attachment.
type AttachmentFile struct {
	Location string `json:"location" db:"location"`
	Filename string `json:"filename" db:"filename"`
	Type     string `json:"type"     db:"type"`
}

func (Attachment) Discriminator() Discriminator { return DiscriminatorAttachment }
func (Attachment) concrete()                    {}

type attachmentRow struct {
	Trashed   bool   `db:"trashed"`
	Subdomain string `db:"subdomain"`
	Type      string `db:"type"`
}

var attachmentPrefix = []string{"attachment", "file"}

func fetchAttachment(ctx context.Context, s *session, id int) (*Uuid, error) {
	const (
		qContainer = `
            SELECT u.trashed, i.subdomain, a.type
                FROM attachment_container a
                JOIN uuid u ON u.id = a.id
                JOIN instance i ON i.id = a.instance_id
                WHERE a.id = ?`
		qFiles = `
            SELECT location, filename, type
                FROM attachment_file
                WHERE attachment_id = ?
                ORDER BY id`
	)

	var (
		row   attachmentRow
		files []AttachmentFile
	)
	err := gather(ctx, s,
		func(ctx context.Context) error {
			return notFound("attachment", id, s.q.Get(ctx, &row, qContainer, id))
		},
		func(ctx context.Context) error {
			return storeErr("attachment files", id, s.q.Select(ctx, &files, qFiles, id))
		},
	)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []AttachmentFile{}
	}

	var filename string
	if len(files) > 0 {
		filename = files[0].Filename
	}

	return &Uuid{
		ID:      id,
		Trashed: row.Trashed,
		Alias:   alias.Format(attachmentPrefix, id, filename),
		Concrete: Attachment{
			Instance: row.Subdomain,
			Type:     row.Type,
			Files:    files,
		},
	}, nil
}
