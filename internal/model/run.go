package model

import (
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/engine"
	"locmirror/internal/location"

	"gorm.io/gorm"
)

// RunOutcome is the in-memory aggregation of one mirror run. Built once
// after all jobs finish; read-only afterwards.
type RunOutcome struct {
	RunID           string
	Identity        location.Identity
	Jobs            []engine.JobResult
	OverallCode     int
	Band            classify.Band
	DryRun          bool
	AbortReason     string
	CapacityWarning string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// RunRecord is the persisted form of a run, including aborted ones.
type RunRecord struct {
	gorm.Model
	RunID        string `gorm:"uniqueIndex;not null"`
	LocationCode string `gorm:"index;not null"`
	Hostname     string `gorm:"not null"`
	OverallCode  int
	Band         string `gorm:"not null"`
	DryRun       bool
	Aborted      bool
	AbortReason  string
	JobDetail    string
	SummaryPath  string
	StartedAt    time.Time `gorm:"not null"`
	FinishedAt   time.Time
}
