package books

import (
	"context"
	"fmt"
	"strings"

	"github.com/elibbooks/elib/pkg/models"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

// maxSlugLength bounds generated slugs; a little room is reserved for the
// collision suffix.
const maxSlugLength = 220

// assignSlug fills in a unique slug derived from the book's title. Slugs are
// assigned once and never regenerated, even when the title changes later.
func (svc *Service) assignSlug(ctx context.Context, book *models.Book) error {
	if book.Slug != "" {
		return nil
	}

	base := slug.Make(book.Title)
	if base == "" {
		base = "book"
	}
	if len(base) > maxSlugLength-5 {
		base = strings.TrimRight(base[:maxSlugLength-5], "-")
	}

	candidate := base
	for n := 2; ; n++ {
		taken, err := svc.slugTaken(ctx, candidate, book.ID)
		if err != nil {
			return err
		}
		if !taken {
			book.Slug = candidate
			return nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (svc *Service) slugTaken(ctx context.Context, s string, excludeID int) (bool, error) {
	q := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("b.slug = ?", s)

	if excludeID != 0 {
		q = q.Where("b.id != ?", excludeID)
	}

	taken, err := q.Exists(ctx)
	return taken, errors.WithStack(err)
}
