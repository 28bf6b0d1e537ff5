package models

import "gorm.io/gorm"

// Init creates the presence table, with its unique (seance_id, etudiant_nom) index, when it does not exist yet.
// An existing table belongs to the school database and is used as is, never altered.
// Everything else (professors, courses, seances) belongs to the management API and is migrated there.
func Init(db *gorm.DB) error {
	if db.Migrator().HasTable(&Presence{}) {
		return nil
	}
	return db.Migrator().CreateTable(&Presence{})
}
