package models

import "github.com/google/uuid"

// GrowthTemplate captures a user's self-assessment used for career growth
// conversations.
type GrowthTemplate struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	CoreCompetencies   string    `json:"core_competencies" db:"core_competencies"`
	DevelopingSkills   string    `json:"developing_skills" db:"developing_skills"`
	RecentAchievements string    `json:"recent_achievements" db:"recent_achievements"`
	HowToContribute    string    `json:"how_to_contribute" db:"how_to_contribute"`
}
