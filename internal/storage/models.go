package storage

// Role distinguishes job seekers from employers.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether an employer may move an application from s to next.
// Accepted and rejected are terminal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusReviewed || next == StatusAccepted || next == StatusRejected
	case StatusReviewed:
		return next == StatusAccepted || next == StatusRejected
	}
	return false
}

// InteractionType labels a row in user_interactions.
type InteractionType string

const (
	InteractionView  InteractionType = "view"
	InteractionSave  InteractionType = "save"
	InteractionApply InteractionType = "apply"
)

// User is a Telegram user known to the bot.
type User struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            Role   `json:"role"`
	Company         string `json:"company,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Skills          string `json:"skills,omitempty"`
	ExperienceYears int    `json:"experience_years"`
	CreatedAt       int64  `json:"created_at"`
	LastActive      int64  `json:"last_active"`
}

// IsEmployer reports whether the user may post jobs.
func (u *User) IsEmployer() bool {
	return u.Role == RoleEmployer
}

// DisplayName returns the best available human-readable name.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	}
	return "there"
}

// ProfileUpdate carries optional profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Phone           *string
	Email           *string
	Skills          *string
	ExperienceYears *int
}

// Job is a job listing.
type Job struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Category     string `json:"category"`
	JobType      string `json:"job_type"`
	Location     string `json:"location"`
	Salary       string `json:"salary"`
	Description  string `json:"description"`
	Requirements string `json:"requirements,omitempty"`
	EmployerID   int64  `json:"employer_id"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // 0 = never
	Views        int64  `json:"views"`
	Applications int64  `json:"applications"`
}

// NewJob is the input to AddJob.
type NewJob struct {
	Title        string
	Company      string
	Category     string
	JobType      string
	Location     string // default "Remote"
	Salary       string // default "Negotiable"
	Description  string
	Requirements string
	EmployerID   int64
	ContactEmail string
	ContactPhone string
	ExpiresAt    int64 // 0 = now + JobTTL
}

// JobFilter selects active jobs for ListJobs/CountJobs. Empty strings match any value.
type JobFilter struct {
	Category string
	JobType  string
	Limit    int
	Offset   int
}

// JobView is a job as seen by a specific user.
type JobView struct {
	Job
	HasApplied bool `json:"has_applied"`
	IsSaved    bool `json:"is_saved"`
}

// Application is a submitted application.
type Application struct {
	ID           int64             `json:"id"`
	JobID        int64             `json:"job_id"`
	ApplicantID  int64             `json:"applicant_id"`
	FullName     string            `json:"full_name"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	ResumeFileID string            `json:"resume_file_id,omitempty"`
	CoverLetter  string            `json:"cover_letter,omitempty"`
	Status       ApplicationStatus `json:"status"`
	AppliedAt    int64             `json:"applied_at"`
	UpdatedAt    int64             `json:"updated_at"`

	// Joined from jobs when listing.
	JobTitle   string `json:"job_title,omitempty"`
	JobCompany string `json:"job_company,omitempty"`
}

// NewApplication is the input to RecordApplication.
type NewApplication struct {
	JobID        int64
	ApplicantID  int64
	FullName     string
	Email        string
	Phone        string
	ResumeFileID string
	CoverLetter  string
}

// SavedJob is a bookmarked job with the time it was saved.
type SavedJob struct {
	Job
	SavedAt int64 `json:"saved_at"`
}

// Statistics are the headline counts.
type Statistics struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveJobs        int64 `json:"active_jobs"`
	TotalApplications int64 `json:"total_applications"`
	Employers         int64 `json:"employers"`
}

// DailyCount is a per-day aggregate. Day is YYYY-MM-DD in UTC.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CategoryCount is the number of active jobs in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
