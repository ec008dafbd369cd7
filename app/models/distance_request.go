package models

import "time"

const (
	DistanceRequestStatusSuccess = "success"
	DistanceRequestStatusError   = "error"
)

// DistanceRequest is the audit row written for every distance-matrix lookup,
// successful or not.
type DistanceRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RequestID     string    `gorm:"type:varchar(36);index" json:"request_id"`
	Origins       string    `gorm:"type:varchar(100);not null" json:"origins"`
	Destination   string    `gorm:"type:varchar(200);not null" json:"destination"`
	DistanceText  string    `gorm:"type:varchar(50);default:''" json:"distance_text"`
	DistanceValue int       `gorm:"default:0" json:"distance_value"`
	DurationText  string    `gorm:"type:varchar(50);default:''" json:"duration_text"`
	DurationValue int       `gorm:"default:0" json:"duration_value"`
	Status        string    `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
