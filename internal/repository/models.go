package repository

import (
	"time"

	"banreport/internal/domain"
)

// RunModel is the persisted form of one report run.
type RunModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Status     string    `gorm:"type:varchar(20);not null"`
	TotalKeys  int       `gorm:"not null"`
	Succeeded  int       `gorm:"not null"`
	Failed     int       `gorm:"not null"`
	StartedAt  time.Time `gorm:"not null"`
	DurationMS int64     `gorm:"not null"`
	ReportPath string    `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (RunModel) TableName() string { return "runs" }

// RunRecordModel is one enriched address within a run. Position preserves the
// discovery order of the batch.
type RunRecordModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	RunID    string `gorm:"type:uuid;not null"`
	Position int    `gorm:"not null"`
	IP       string `gorm:"type:varchar(45);not null"`
	Country  string `gorm:"type:text"`
	City     string `gorm:"type:text"`
	Provider string `gorm:"type:text"`
	Status   string `gorm:"type:varchar(10);not null"`
}

func (RunRecordModel) TableName() string { return "run_records" }

func runModelFromStats(stats domain.RunStats, reportPath string) *RunModel {
	return &RunModel{
		ID:         stats.RunID,
		Status:     stats.Status.String(),
		TotalKeys:  stats.TotalKeys,
		Succeeded:  stats.Succeeded,
		Failed:     stats.Failed,
		StartedAt:  stats.StartTime,
		DurationMS: stats.Duration.Milliseconds(),
		ReportPath: reportPath,
	}
}

func runModelToStats(model *RunModel) *domain.RunStats {
	if model == nil {
		return nil
	}
	return &domain.RunStats{
		RunID:     model.ID,
		Status:    domain.RunStatus(model.Status),
		StartTime: model.StartedAt,
		Duration:  time.Duration(model.DurationMS) * time.Millisecond,
		TotalKeys: model.TotalKeys,
		Succeeded: model.Succeeded,
		Failed:    model.Failed,
	}
}

func recordModelsFromDomain(runID string, records []domain.Record) []RunRecordModel {
	models := make([]RunRecordModel, 0, len(records))
	for i, record := range records {
		models = append(models, RunRecordModel{
			RunID:    runID,
			Position: i,
			IP:       record.Key,
			Country:  record.Country,
			City:     record.City,
			Provider: record.Provider,
			Status:   record.Status.String(),
		})
	}
	return models
}

func recordModelsToDomain(models []RunRecordModel) []domain.Record {
	records := make([]domain.Record, 0, len(models))
	for _, model := range models {
		records = append(records, domain.Record{
			Key:      model.IP,
			Country:  model.Country,
			City:     model.City,
			Provider: model.Provider,
			Status:   domain.RecordStatus(model.Status),
		})
	}
	return records
}
