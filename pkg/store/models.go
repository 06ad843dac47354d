package store

import "time"

// Dataset is one saved database. Every record carries the name of the
// dataset it belongs to; saving a dataset again replaces its records.
type Dataset struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	Name           string    `gorm:"not null;uniqueIndex" json:"name"`
	Enriched       bool      `json:"enriched"`
	Problems       int       `json:"problems"`
	Instances      int       `json:"instances"`
	Configurations int       `json:"configurations"`
	Runs           int       `json:"runs"`
	Events         int       `json:"events"`
	SavedAt        time.Time `json:"saved_at"`
}

// Problem is a stored problem row.
type Problem struct {
	ID        uint   `gorm:"primaryKey"`
	Dataset   string `gorm:"not null;uniqueIndex:idx_problems_dataset_problem"`
	ProblemID int    `gorm:"not null;uniqueIndex:idx_problems_dataset_problem"`
	Name      string `gorm:"not null"`
	Type      string
}

// Instance is a stored flatzinc row. Metric bounds are in the metric's
// integer unit, microseconds for time.
type Instance struct {
	ID          uint   `gorm:"primaryKey"`
	Dataset     string `gorm:"not null;uniqueIndex:idx_flatzincs_dataset_flatzinc"`
	FlatzincID  int    `gorm:"not null;uniqueIndex:idx_flatzincs_dataset_flatzinc"`
	Name        string `gorm:"not null"`
	ProblemID   int    `gorm:"not null"`
	ProblemType string

	ObjectiveLB *int64 `gorm:"column:objective_lb"`
	ObjectiveUB *int64 `gorm:"column:objective_ub"`
	ObjectiveBB *int64 `gorm:"column:objective_bb"`
	ObjectiveWB *int64 `gorm:"column:objective_wb"`

	TimeFSol         *int64 `gorm:"column:time_fsol"`
	TimeLSol         *int64 `gorm:"column:time_lsol"`
	NumDecisionsFSol *int64 `gorm:"column:num_decisions_fsol"`
	NumDecisionsLSol *int64 `gorm:"column:num_decisions_lsol"`
}

// TableName keeps the name of the flatzinc table.
func (Instance) TableName() string {
	return "flatzincs"
}

// Configuration is a stored configuration row.
type Configuration struct {
	ID              uint   `gorm:"primaryKey"`
	Dataset         string `gorm:"not null;uniqueIndex:idx_configurations_dataset_configuration"`
	ConfigurationID int    `gorm:"not null;uniqueIndex:idx_configurations_dataset_configuration"`
	Name            string `gorm:"not null"`
	VarOrder        string
	ValueOrder      string
	Restart         string `gorm:"index"`
}

// Run is a stored run row.
type Run struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	Dataset         string `gorm:"not null;uniqueIndex:idx_runs_dataset_run" json:"dataset"`
	RunID           int    `gorm:"not null;uniqueIndex:idx_runs_dataset_run" json:"id"`
	FlatzincID      int    `gorm:"not null;index" json:"flatzinc.id"`
	ConfigurationID int    `gorm:"not null;index" json:"configuration.id"`

	ObjectiveLB    *int64   `gorm:"column:objective_lb" json:"objective_lb"`
	ObjectiveUB    *int64   `gorm:"column:objective_ub" json:"objective_ub"`
	ObjectiveBB    *int64   `gorm:"column:objective_bb" json:"objective_bb"`
	ObjectiveWB    *int64   `gorm:"column:objective_wb" json:"objective_wb"`
	NumSolutions   uint64   `json:"num_solutions"`
	ObjectiveScore *float64 `json:"objective_score"`

	TimeFSol         *int64 `gorm:"column:time_fsol" json:"time_fsol"`
	TimeLSol         *int64 `gorm:"column:time_lsol" json:"time_lsol"`
	NumDecisionsFSol *int64 `gorm:"column:num_decisions_fsol" json:"num_decisions_fsol"`
	NumDecisionsLSol *int64 `gorm:"column:num_decisions_lsol" json:"num_decisions_lsol"`

	AUTCScore *float64 `gorm:"column:autc_score" json:"autc_score"`
	AUDCScore *float64 `gorm:"column:audc_score" json:"audc_score"`
}

// Event is a stored event row. Time is in microseconds.
type Event struct {
	ID            uint   `gorm:"primaryKey"`
	Dataset       string `gorm:"not null;uniqueIndex:idx_events_dataset_event"`
	EventID       int    `gorm:"not null;uniqueIndex:idx_events_dataset_event"`
	RunID         int    `gorm:"not null;index"`
	Type          string `gorm:"not null"`
	NumSolutions  uint64
	Objective     *int64
	Time          int64
	NumDecisions  uint64
	NumConflicts  uint64
	NumDomUpdates uint64
	NumRestarts   uint64
}
