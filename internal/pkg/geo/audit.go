package geo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bonesy512/landhub/app/models"
)

// Auditor persists one row per distance lookup. It returns its failure to
// the caller instead of swallowing it; the caller decides how to log.
type Auditor struct {
	db *gorm.DB
}

func NewAuditor(db *gorm.DB) *Auditor {
	return &Auditor{db: db}
}

// RecordSuccess stores a successful lookup and returns the audit row id.
func (a *Auditor) RecordSuccess(origins, destination string, result *DistanceResult) (string, error) {
	row := &models.DistanceRequest{
		RequestID:     uuid.NewString(),
		Origins:       origins,
		Destination:   destination,
		DistanceText:  result.DistanceText,
		DistanceValue: result.DistanceValue,
		DurationText:  result.DurationText,
		DurationValue: result.DurationValue,
		Status:        models.DistanceRequestStatusSuccess,
	}
	if err := a.db.Create(row).Error; err != nil {
		return "", err
	}
	return row.RequestID, nil
}

// RecordFailure stores a failed lookup.
func (a *Auditor) RecordFailure(origins, destination string, lookupErr error) (string, error) {
	row := &models.DistanceRequest{
		RequestID:    uuid.NewString(),
		Origins:      origins,
		Destination:  destination,
		Status:       models.DistanceRequestStatusError,
		ErrorMessage: lookupErr.Error(),
	}
	if err := a.db.Create(row).Error; err != nil {
		return "", err
	}
	return row.RequestID, nil
}
