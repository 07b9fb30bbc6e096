package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResyncSource - что инициировало пересинхронизацию
type ResyncSource string

const (
	ResyncSourceEvent  ResyncSource = "event"
	ResyncSourceSweep  ResyncSource = "sweep"
	ResyncSourceManual ResyncSource = "manual"
)

type ResyncOutcome string

const (
	ResyncOutcomeConsistent ResyncOutcome = "consistent"
	ResyncOutcomeRepaired   ResyncOutcome = "repaired"
	ResyncOutcomeFailed     ResyncOutcome = "failed"
)

// ReconciliationRun - запись журнала пересинхронизаций в PostgreSQL
type ReconciliationRun struct {
	ID                uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Source            ResyncSource  `json:"source" gorm:"type:varchar(20);not null"`
	Kind              ItemKind      `json:"kind" gorm:"type:varchar(20);not null"`
	ProductID         string        `json:"product_id" gorm:"type:varchar(24);not null;index"`
	OrderID           string        `json:"order_id" gorm:"type:varchar(24);not null"`
	UserID            string        `json:"user_id" gorm:"type:varchar(64);not null"`
	Outcome           ResyncOutcome `json:"outcome" gorm:"type:varchar(20);not null"`
	RatingsBefore     float64       `json:"ratings_before"`
	RatingsAfter      float64       `json:"ratings_after"`
	DuplicatesRemoved int           `json:"duplicates_removed"`
	LinesUpdated      int64         `json:"lines_updated"`
	OrderSync         string        `json:"order_sync" gorm:"type:varchar(32)"`
	Error             string        `json:"error,omitempty" gorm:"type:text"`
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

func (ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}

// NewReconciliationRun формирует запись журнала по результату Resync
func NewReconciliationRun(source ResyncSource, in ResyncInput, report *ResyncReport, err error) *ReconciliationRun {
	run := &ReconciliationRun{
		ID:        uuid.New(),
		Source:    source,
		Kind:      in.Kind,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		UserID:    in.UserID,
		Outcome:   ResyncOutcomeConsistent,
	}

	if report != nil {
		run.RatingsBefore = report.RatingsBefore
		run.RatingsAfter = report.RatingsAfter
		run.DuplicatesRemoved = report.DuplicatesRemoved
		run.LinesUpdated = report.LinesUpdated
		run.OrderSync = string(report.OrderSync)
		if report.Repaired() {
			run.Outcome = ResyncOutcomeRepaired
		}
	}

	if err != nil {
		run.Outcome = ResyncOutcomeFailed
		run.Error = err.Error()
	}

	return run
}
