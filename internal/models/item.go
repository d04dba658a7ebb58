package models

import (
	"github.com/jinzhu/gorm"
)

// Item represents a unit of tracked inventory. A single Item row may stand
// for several physical units (Total > 1); the four quantity columns must
// always satisfy Available + Loaned + Damaged == Total.
type Item struct {
	gorm.Model
	Code      string `gorm:"unique_index;not null" json:"code"`
	Name      string `gorm:"not null" json:"name"`
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Loaned    int    `json:"loaned"`
	Damaged   int    `json:"damaged"`
	// Status is derived from the quantity columns on every mutation and
	// never settable by callers.
	Status   ItemStatus `json:"status"`
	Price    float64    `json:"price,omitempty"`
	Location string     `json:"location,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

// ItemStatus represents the derived availability status of an item
type ItemStatus string

const (
	// Item statuses
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusLoanedOut   ItemStatus = "loaned_out"
	ItemStatusDamaged     ItemStatus = "damaged"
	ItemStatusPartial     ItemStatus = "partially_available"
	ItemStatusMaintenance ItemStatus = "maintenance"
)

// ItemCategory represents the category of an inventory item
type ItemCategory string

const (
	// Item categories
	CategoryElectronics ItemCategory = "electronics"
	CategoryFurniture   ItemCategory = "furniture"
	CategoryTools       ItemCategory = "tools"
	CategoryVehicles    ItemCategory = "vehicles"
	CategoryAppliances  ItemCategory = "appliances"
	CategorySupplies    ItemCategory = "supplies"
	CategoryOther       ItemCategory = "other"
)
