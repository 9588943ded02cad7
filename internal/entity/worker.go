package entity

import (
	"time"

	"github.com/google/uuid"
)

// Worker is one scheduled shoot for one lead. The external sender reads
// workers whose PerformAt has passed and deletes them once fired.
type Worker struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	FID       string    `json:"fid"`
	Lead      Lead      `json:"lead"`
	Shoot     Shoot     `json:"shoot"`
	PerformAt time.Time `json:"perform_at"`
	CreatedAt time.Time `json:"created_at"`
}

func NewWorker(f *Funnel, lead Lead, shoot Shoot, performAt, now time.Time) *Worker {
	return &Worker{
		ID:        uuid.New().String(),
		UID:       f.UID,
		FID:       f.ID,
		Lead:      lead,
		Shoot:     shoot,
		PerformAt: performAt,
		CreatedAt: now,
	}
}
