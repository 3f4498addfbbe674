package model

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Categories is stored as text[] on postgres and as the array literal elsewhere.
type Categories pq.StringArray

func (c Categories) Value() (driver.Value, error) {
	return pq.StringArray(c).Value()
}

func (c *Categories) Scan(src interface{}) error {
	return (*pq.StringArray)(c).Scan(src)
}

// GormDataType lets the schema parser treat the slice as a column, not a relation.
func (Categories) GormDataType() string {
	return "text"
}

func (Categories) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Business is a local business listed in the neighborhood directory.
type Business struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	OwnerID     *uint      `gorm:"index" json:"owner_id"` // nil for unclaimed listings
	Owner       *User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"owner,omitempty"`
	Name        string     `gorm:"not null" json:"name"`
	Slug        string     `gorm:"uniqueIndex" json:"slug"`
	District    string     `gorm:"index;not null" json:"district"`
	Address     string     `gorm:"type:text" json:"address"`
	PhoneNumber string     `gorm:"type:varchar(30)" json:"phone_number"`
	Description string     `gorm:"type:text" json:"description"`
	Categories  Categories `json:"categories"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Business) TableName() string {
	return "businesses"
}

var (
	slugInvalidChars = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// GenerateSlug builds the URL identifier from district and name.
func GenerateSlug(district, name string) string {
	slug := fmt.Sprintf("%s-%s", district, name)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}

// BeforeCreate assigns a unique slug when none is set.
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.Slug != "" {
		return nil
	}

	base := GenerateSlug(b.District, b.Name)
	slug := base
	for counter := 2; ; counter++ {
		var count int64
		if err := tx.Model(&Business{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}

	b.Slug = slug
	return nil
}
