package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is embedded in its quiz as part of a jsonb column rather than
// stored as its own table. Field names follow the bulk-import file format.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz carries both the database row id and an external string id (QuizID)
// that mobile clients and the import format use. Category is the display
// name, denormalized from the referenced Category row.
type Quiz struct {
	ID          uint                          `json:"id" gorm:"primaryKey"`
	QuizID      string                        `json:"quiz_id" gorm:"uniqueIndex;not null"`
	Title       string                        `json:"title" gorm:"not null"`
	Description string                        `json:"description"`
	CategoryID  uint                          `json:"category_id" gorm:"index;not null"`
	Category    string                        `json:"category" gorm:"index;not null"`
	Difficulty  string                        `json:"difficulty" gorm:"index;not null"`
	Duration    int                           `json:"duration" gorm:"not null"` // minutes
	Questions   datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// ValidDifficulty reports whether d is one of the three accepted levels.
func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}
