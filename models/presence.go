package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Presence is the attendance-of-record: a student seen during a seance.
// Column names follow the school database `presence` table, see Init.
type Presence struct {
	ID          uint64 `gorm:"primaryKey" json:"-"`
	CreatedAt   int64  `json:"created_at"`
	SeanceID    string `gorm:"type:varchar(64);not null;index:uniq_seance_student,unique,priority:1" json:"seance_id"`
	StudentName string `gorm:"column:etudiant_nom;type:varchar(300);not null;index:uniq_seance_student,unique,priority:2" json:"student"`
}

// TableName overrides the table name
func (Presence) TableName() string {
	return "presence"
}

// InsertPresenceIfAbsent returns true if a new row was created and false if the pair was already there
func InsertPresenceIfAbsent(tx *gorm.DB, seanceID, studentName string) (bool, error) {
	p := Presence{
		SeanceID:    seanceID,
		StudentName: studentName,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func PresencesForSeance(tx *gorm.DB, seanceID string) (result []Presence, err error) {
	err = tx.Where("seance_id = ?", seanceID).Order("id ASC").Find(&result).Error
	return
}
