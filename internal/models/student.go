package models

import "time"

// Student is a row in the students role table with its academic placement.
type Student struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	CollegeID    string    `db:"college_id" json:"college_id"`
	FullName     *string   `db:"full_name" json:"full_name,omitempty"`
	RollNumber   *string   `db:"roll_number" json:"roll_number,omitempty"`
	Program      *string   `db:"program" json:"program,omitempty"`
	Branch       *string   `db:"branch" json:"branch,omitempty"`
	AcademicYear *string   `db:"academic_year" json:"academic_year,omitempty"`
	Documents    JSONMap   `db:"documents" json:"documents,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
