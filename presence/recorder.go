package presence

import (
	"context"

	"attendance/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder persists one presence per (seance, student). Every call runs in its own transaction,
// so a failure on one connection never touches another connection's write.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record inserts the presence if absent. Failures are rolled back and logged, never returned:
// the caller's frame loop carries on regardless. The result reports whether the row is persisted.
func (r *Recorder) Record(ctx context.Context, seanceID, studentName string) bool {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = models.InsertPresenceIfAbsent(tx, seanceID, studentName)
		return err
	})
	if err != nil {
		r.log.Error("presence insert failed",
			zap.String("seance_id", seanceID),
			zap.String("student", studentName),
			zap.Error(err))
		return false
	}
	if created {
		r.log.Info("presence recorded", zap.String("seance_id", seanceID), zap.String("student", studentName))
	} else {
		r.log.Debug("presence already recorded", zap.String("seance_id", seanceID), zap.String("student", studentName))
	}
	return true
}

func (r *Recorder) List(ctx context.Context, seanceID string) ([]models.Presence, error) {
	return models.PresencesForSeance(r.db.WithContext(ctx), seanceID)
}
