package models

import (
	"github.com/jinzhu/gorm"
)

// ActivityEntry is one row of the generic activity log: who did what to
// which entity. Written after every successful mutation, never read back
// by the core.
type ActivityEntry struct {
	gorm.Model
	UserID     string `gorm:"index" json:"user_id"`
	Action     string `gorm:"not null" json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Details    string `json:"details,omitempty"`
}
