package repository

import (
	"encoding/json"
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/db"
	"locmirror/internal/model"
)

type RunRepository struct{}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

type jobDetail struct {
	Name       string `json:"name"`
	ExitStatus int    `json:"exit_status"`
	DurationMS int64  `json:"duration_ms"`
	LogPath    string `json:"log_path"`
}

func (r *RunRepository) Save(outcome model.RunOutcome, summaryPath string) error {
	details := make([]jobDetail, 0, len(outcome.Jobs))
	for _, j := range outcome.Jobs {
		details = append(details, jobDetail{
			Name:       j.Name,
			ExitStatus: j.ExitStatus,
			DurationMS: j.Duration.Milliseconds(),
			LogPath:    j.LogPath,
		})
	}

	detailJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	record := model.RunRecord{
		RunID:        outcome.RunID,
		LocationCode: outcome.Identity.Code,
		Hostname:     outcome.Identity.Hostname,
		OverallCode:  outcome.OverallCode,
		Band:         string(outcome.Band),
		DryRun:       outcome.DryRun,
		JobDetail:    string(detailJSON),
		SummaryPath:  summaryPath,
		StartedAt:    outcome.StartedAt,
		FinishedAt:   outcome.FinishedAt,
	}

	return db.DB.Create(&record).Error
}

func (r *RunRepository) SaveAborted(runID, code, hostname, reason string, startedAt time.Time) error {
	record := model.RunRecord{
		RunID:        runID,
		LocationCode: code,
		Hostname:     hostname,
		Band:         string(classify.BandError),
		Aborted:      true,
		AbortReason:  reason,
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
	}

	return db.DB.Create(&record).Error
}

type Stats struct {
	Total   int64
	Success int64
	Warning int64
	Error   int64
}

func (r *RunRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.RunRecord{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	counts := map[classify.Band]*int64{
		classify.BandSuccess: &stats.Success,
		classify.BandWarning: &stats.Warning,
		classify.BandError:   &stats.Error,
	}
	for band, dst := range counts {
		if err := db.DB.Model(&model.RunRecord{}).
			Where("band = ?", string(band)).
			Count(dst).Error; err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (r *RunRepository) GetRecent(limit int) ([]model.RunRecord, error) {
	var records []model.RunRecord
	result := db.DB.
		Order("started_at desc").
		Limit(limit).
		Find(&records)

	return records, result.Error
}

func (r *RunRepository) GetFailed() ([]model.RunRecord, error) {
	var records []model.RunRecord
	result := db.DB.
		Where("band = ?", string(classify.BandError)).
		Order("started_at desc").
		Find(&records)

	return records, result.Error
}

func (r *RunRepository) LatestForLocation(code string) (*model.RunRecord, error) {
	var record model.RunRecord
	result := db.DB.
		Where("location_code = ?", code).
		Order("started_at desc").
		First(&record)
	if result.Error != nil {
		return nil, result.Error
	}

	return &record, nil
}
