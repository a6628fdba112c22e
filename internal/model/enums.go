package model

import "fmt"

// ApplicationStatus values mirror the CHECK constraint on applications.status.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusContacted   ApplicationStatus = "contacted"
	StatusHired       ApplicationStatus = "hired"
	StatusRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	StatusPending, StatusReviewed, StatusShortlisted,
	StatusContacted, StatusHired, StatusRejected,
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus,
// returning an error for unknown values. Matching is case-sensitive.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusContacted, StatusHired, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// EmploymentType values mirror jobs.employment_type.
type EmploymentType string

const (
	FullTime  EmploymentType = "full-time"
	PartTime  EmploymentType = "part-time"
	Contract  EmploymentType = "contract"
	Freelance EmploymentType = "freelance"
)

// ParseEmploymentType validates an employment type.
func ParseEmploymentType(s string) (EmploymentType, error) {
	et := EmploymentType(s)
	switch et {
	case FullTime, PartTime, Contract, Freelance:
		return et, nil
	}
	return "", fmt.Errorf("unknown employment type %q", s)
}

// ResourceType values mirror learning_resources.resource_type.
type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourceArticle  ResourceType = "article"
	ResourceCourse   ResourceType = "course"
	ResourceTutorial ResourceType = "tutorial"
)

// ParseResourceType validates a learning resource type.
func ParseResourceType(s string) (ResourceType, error) {
	rt := ResourceType(s)
	switch rt {
	case ResourceVideo, ResourceArticle, ResourceCourse, ResourceTutorial:
		return rt, nil
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

// DifficultyLevel values mirror learning_resources.difficulty_level.
type DifficultyLevel string

const (
	Beginner     DifficultyLevel = "beginner"
	Intermediate DifficultyLevel = "intermediate"
	Advanced     DifficultyLevel = "advanced"
)

// ParseDifficultyLevel validates a difficulty level.
func ParseDifficultyLevel(s string) (DifficultyLevel, error) {
	d := DifficultyLevel(s)
	switch d {
	case Beginner, Intermediate, Advanced:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty level %q", s)
}

// Role is the authorization role carried by a user and its tokens.
type Role string

const (
	RoleWorker   Role = "worker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleWorker, RoleEmployer, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ProgressStatus values mirror worker_learning.status.
type ProgressStatus string

const (
	ProgressRecommended ProgressStatus = "recommended"
	ProgressStarted     ProgressStatus = "started"
	ProgressCompleted   ProgressStatus = "completed"
)

// ParseProgressStatus validates a learning progress status.
func ParseProgressStatus(s string) (ProgressStatus, error) {
	p := ProgressStatus(s)
	switch p {
	case ProgressRecommended, ProgressStarted, ProgressCompleted:
		return p, nil
	}
	return "", fmt.Errorf("unknown progress status %q", s)
}

// ProgressFor derives the status implied by a completion percentage.
func ProgressFor(percent int) ProgressStatus {
	switch {
	case percent >= 100:
		return ProgressCompleted
	case percent > 0:
		return ProgressStarted
	}
	return ProgressRecommended
}
