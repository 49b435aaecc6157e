package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/types"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases name and joins its words with dashes.
func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// newCode returns prefix_ followed by 12 random hex characters.
func newCode(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// uniqueSlug derives a slug from name when slug is empty and checks it is
// unused in model's table, ignoring the row with excludeID.
func uniqueSlug(db *gorm.DB, model any, slug, name string, excludeID uint) (string, error) {
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return "", apperr.Validation("slug cannot be derived from name").WithField("slug", "slug is required")
	}

	var count int64
	q := db.Unscoped().Model(model).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", apperr.Conflict("slug is already taken").WithField("slug", "slug is already taken")
	}
	return slug, nil
}

// paginate pages db by q and returns the total row count.
func paginate[T any](db *gorm.DB, q types.PageQuery, order string) ([]T, int64, error) {
	q.Normalize()

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]T, 0)
	if err := db.Session(&gorm.Session{}).Order(order).Offset(q.Offset()).Limit(q.Size).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// like wraps s for a LIKE query.
func like(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

// boolOr dereferences v or falls back to def.
func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// notFound converts a missing record into a named 404.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return err
}

// invalidField is a 422 carrying the same message for field.
func invalidField(field, msg string) error {
	return apperr.Validation(msg).WithField(field, msg)
}
