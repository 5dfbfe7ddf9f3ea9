package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SimulationRun is a persisted batch of trophy-race simulations
type SimulationRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Season      string         `gorm:"size:8;index" json:"season"`
	ScoreType   string         `gorm:"size:16" json:"score_type"`
	Simulations int            `json:"simulations"`
	Workers     int            `json:"workers"`
	Seed        int64          `json:"seed"`
	PlayerCount int            `json:"player_count"`
	Outcomes    datatypes.JSON `json:"outcomes"`
	Players     datatypes.JSON `json:"players"`
	DurationMS  int64          `json:"duration_ms"`
	Trigger     string         `gorm:"size:16" json:"trigger"` // "cli", "api", "schedule"
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (SimulationRun) TableName() string {
	return "simulation_runs"
}

// BeforeCreate assigns a run id when the caller did not
func (r *SimulationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
