package ledger

import (
	"quartermaster/internal/models"
)

// DeriveStatus computes an item's status from its quantity columns. Pure
// function; the status column is never written except through this.
func DeriveStatus(available, loaned, damaged int) models.ItemStatus {
	switch {
	case available > 0 && loaned == 0 && damaged == 0:
		return models.ItemStatusAvailable
	case available <= 0 && loaned > 0 && damaged == 0:
		return models.ItemStatusLoanedOut
	case available <= 0 && damaged > 0 && loaned == 0:
		return models.ItemStatusDamaged
	case available > 0 && (loaned > 0 || damaged > 0):
		return models.ItemStatusPartial
	default:
		return models.ItemStatusMaintenance
	}
}

func checkQuantities(item *models.Item) error {
	if item.Available < 0 || item.Loaned < 0 || item.Damaged < 0 || item.Total < 0 {
		return &InvariantViolationError{ItemCode: item.Code, Reason: "negative quantity"}
	}
	if item.Available+item.Loaned+item.Damaged != item.Total {
		return &InvariantViolationError{
			ItemCode: item.Code,
			Reason:   "available + loaned + damaged does not equal total",
		}
	}
	return nil
}
