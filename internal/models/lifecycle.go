package models

import (
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// LifecycleEvent is an immutable record of a retirement-type action taken
// against some quantity of an item. Events are append-only; nothing edits
// or deletes them after creation.
type LifecycleEvent struct {
	gorm.Model
	ItemCode string    `gorm:"index;not null" json:"item_code"`
	Tags     string    `gorm:"not null" json:"tags"`
	Date     time.Time `json:"date"`
	Reason   string    `gorm:"not null" json:"reason"`
	Quantity int       `gorm:"not null" json:"quantity"`
}

// LifecycleTag represents a terminal disposition applied to retired units
type LifecycleTag string

const (
	// Lifecycle tags
	TagDecommissioned LifecycleTag = "decommissioned"
	TagLost           LifecycleTag = "lost"
	TagDisposed       LifecycleTag = "disposed"
	TagSold           LifecycleTag = "sold"
	TagDonated        LifecycleTag = "donated"
)

// ValidLifecycleTags lists the accepted lifecycle tag values.
var ValidLifecycleTags = map[LifecycleTag]bool{
	TagDecommissioned: true,
	TagLost:           true,
	TagDisposed:       true,
	TagSold:           true,
	TagDonated:        true,
}

// JoinTags flattens a tag set into the stored comma-separated form.
func JoinTags(tags []LifecycleTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// TagList splits the stored form back into individual tags.
func (e *LifecycleEvent) TagList() []LifecycleTag {
	if e.Tags == "" {
		return nil
	}
	parts := strings.Split(e.Tags, ",")
	tags := make([]LifecycleTag, len(parts))
	for i, p := range parts {
		tags[i] = LifecycleTag(p)
	}
	return tags
}
