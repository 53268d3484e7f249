package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ConsultHistoryLimit bounds Doctor.ConsultationHistory.
	ConsultHistoryLimit = 50
	// DefaultConsultMinutes seeds AvgConsultTime for new doctors.
	DefaultConsultMinutes = 10
)

type ConsultRecord struct {
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

type Doctor struct {
	Row
	UserID              *uuid.UUID      `db:"user_id"`
	Name                string          `db:"name"`
	Department          string          `db:"department"`
	AvgConsultTime      float64         `db:"avg_consult_time"` // minutes
	ConsultationFee     float64         `db:"consultation_fee"`
	Active              bool            `db:"active"`
	ConsultationHistory []ConsultRecord `db:"consultation_history"`
}

// RecordConsultation folds one finished consultation into the moving average
// (9:1 toward history) and appends it to the bounded history.
func (d *Doctor) RecordConsultation(durationMins float64, at time.Time) {
	d.AvgConsultTime = (d.AvgConsultTime*9 + durationMins) / 10
	d.ConsultationHistory = append(d.ConsultationHistory, ConsultRecord{Duration: durationMins, Timestamp: at})
	if n := len(d.ConsultationHistory); n > ConsultHistoryLimit {
		d.ConsultationHistory = d.ConsultationHistory[n-ConsultHistoryLimit:]
	}
	d.Touch(at)
}

// EstimatedWait in minutes for a queue of the given length.
func (d *Doctor) EstimatedWait(queueLength int) float64 {
	return float64(queueLength) * d.AvgConsultTime
}
