// Package model defines the records stored and served by the API.
package model

import (
	"encoding/json"
	"time"
)

// Worker is a registered job-seeker profile.
type Worker struct {
	ID              string    `json:"id"`
	WorkerID        string    `json:"workerId"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           *string   `json:"email,omitempty"`
	JobTitle        string    `json:"jobTitle"`
	ExperienceYears int       `json:"experienceYears"`
	Skills          []string  `json:"skills"`
	Location        string    `json:"location"`
	Language        *string   `json:"language,omitempty"`
	AudioFilePath   string    `json:"audioFilePath"`
	Transcription   string    `json:"transcription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// WorkerSummary is the headline view of a worker used by the dashboard.
type WorkerSummary struct {
	WorkerID  string    `json:"workerId"`
	Name      string    `json:"name"`
	JobTitle  string    `json:"jobTitle"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// Job is a posting by an employer.
type Job struct {
	ID                 string         `json:"id"`
	JobID              string         `json:"jobId"`
	Title              string         `json:"title"`
	Company            string         `json:"company"`
	Description        string         `json:"description"`
	Location           string         `json:"location"`
	SkillsRequired     []string       `json:"skillsRequired"`
	ExperienceRequired int            `json:"experienceRequired"`
	SalaryMin          *int           `json:"salaryMin,omitempty"`
	SalaryMax          *int           `json:"salaryMax,omitempty"`
	EmploymentType     EmploymentType `json:"employmentType"`
	PostedBy           string         `json:"postedBy"`
	IsActive           bool           `json:"isActive"`
	PostedAt           time.Time      `json:"postedAt"`
	ExpiresAt          *time.Time     `json:"expiresAt,omitempty"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Application links a worker to a job by their external identifiers.
type Application struct {
	ID         string            `json:"id"`
	WorkerID   string            `json:"workerId"`
	JobID      string            `json:"jobId"`
	JobTitle   string            `json:"jobTitle"`
	MatchScore float64           `json:"matchScore"`
	Status     ApplicationStatus `json:"status"`
	Notes      *string           `json:"notes,omitempty"`
	AppliedAt  time.Time         `json:"appliedAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// AnalyticsEvent is an append-only activity record.
type AnalyticsEvent struct {
	ID        string          `json:"id"`
	WorkerID  *string         `json:"workerId,omitempty"`
	UserID    *string         `json:"userId,omitempty"`
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData"`
	Timestamp time.Time       `json:"timestamp"`
}

// LearningResource is reference material linked to skills.
type LearningResource struct {
	ID              string          `json:"id"`
	ResourceID      string          `json:"resourceId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	URL             string          `json:"url"`
	ResourceType    ResourceType    `json:"resourceType"`
	Skills          []string        `json:"skills"`
	Language        string          `json:"language"`
	DurationMinutes int             `json:"durationMinutes"`
	DifficultyLevel DifficultyLevel `json:"difficultyLevel"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// LearningProgress tracks one worker's progress through one learning
// resource. StartedAt is set on the first move past recommended and
// CompletedAt while the status is completed.
type LearningProgress struct {
	ID              string         `json:"id"`
	WorkerID        string         `json:"workerId"`
	ResourceID      string         `json:"resourceId"`
	ResourceTitle   string         `json:"resourceTitle"`
	ResourceURL     string         `json:"resourceUrl"`
	Status          ProgressStatus `json:"status"`
	ProgressPercent int            `json:"progressPercent"`
	StartedAt       *time.Time     `json:"startedAt,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// User is an account that can authenticate. PasswordHash never leaves the
// service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EventCount is one bucket of a count-by-key aggregation.
type EventCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// SkillCount is one entry of the dashboard's skill frequency table.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int64  `json:"count"`
}
