package entities

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TrainingSourceAPI       = "api"
	TrainingSourceReconcile = "reconcile"
)

// TrainingRun is the audit row written after every committed fit.
type TrainingRun struct {
	ID          uint                         `gorm:"primaryKey" json:"id"`
	RunID       string                       `gorm:"uniqueIndex;size:36" json:"run_id"`
	Source      string                       `gorm:"index" json:"source"`
	Records     int                          `json:"records"`
	BatchSize   int                          `json:"batch_size"`
	Epochs      int                          `json:"epochs"`
	BestLoss    float64                      `json:"best_loss"`
	Monitor     string                       `json:"monitor"` // val_loss|loss
	SnapshotID  string                       `json:"snapshot_id"`
	LossHistory datatypes.JSONSlice[float64] `json:"loss_history"`

	CreatedAt time.Time `json:"created_at"`
}
