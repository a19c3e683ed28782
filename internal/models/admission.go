package models

import "time"

// AdmissionDecisionKind is the terminal state of an application.
type AdmissionDecisionKind string

const (
	AdmissionApproved AdmissionDecisionKind = "approved"
	AdmissionRejected AdmissionDecisionKind = "rejected"
)

// PendingAdmission is a submitted application awaiting a decision.
type PendingAdmission struct {
	ID        string    `db:"id" json:"id"`
	CollegeID string    `db:"college_id" json:"college_id"`
	Email     string    `db:"email" json:"email"`
	Data      JSONMap   `db:"data" json:"data"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	ApplicantName  string `db:"-" json:"applicant_name,omitempty"`
	ApplicantEmail string `db:"-" json:"applicant_email,omitempty"`
}

// RejectedAdmission archives a rejected application with its original payload.
type RejectedAdmission struct {
	ID                 string    `db:"id" json:"id"`
	PendingAdmissionID string    `db:"pending_admission_id" json:"pending_admission_id"`
	CollegeID          string    `db:"college_id" json:"college_id"`
	Email              string    `db:"email" json:"email"`
	RejectedBy         string    `db:"rejected_by" json:"rejected_by"`
	RejectedReason     string    `db:"rejected_reason" json:"rejected_reason"`
	RejectedAt         time.Time `db:"rejected_at" json:"rejected_at"`
	ApplicationData    JSONMap   `db:"application_data" json:"application_data"`
}

// AdmissionDecision records that an application reached a terminal state.
type AdmissionDecision struct {
	PendingAdmissionID string                `db:"pending_admission_id" json:"pending_admission_id"`
	CollegeID          string                `db:"college_id" json:"college_id"`
	Decision           AdmissionDecisionKind `db:"decision" json:"decision"`
	UserID             *string               `db:"user_id" json:"user_id,omitempty"`
	StudentID          *string               `db:"student_id" json:"student_id,omitempty"`
	DecidedBy          string                `db:"decided_by" json:"decided_by"`
	DecidedAt          time.Time             `db:"decided_at" json:"decided_at"`
}

// AdmissionFilter narrows pending and rejected listings.
type AdmissionFilter struct {
	CollegeID string
	Search    string
	Page      int
	PageSize  int
}

// AdmissionOutcome is the result of approving an application.
type AdmissionOutcome struct {
	PendingAdmissionID string    `json:"pending_admission_id"`
	Student            *Student  `json:"student"`
	Identity           *Identity `json:"identity"`
	AlreadyDecided     bool      `json:"already_decided"`
}

// UploadedDocument references a stored applicant document.
type UploadedDocument struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ExpiresAt   time.Time `json:"expires_at"`
}
