package dto

// SubmitApplicationRequest is the public admission form payload.
type SubmitApplicationRequest struct {
	CollegeID string                 `json:"college_id" validate:"required,uuid"`
	Email     string                 `json:"email" validate:"required,email"`
	Data      map[string]interface{} `json:"data" validate:"required"`
}

// RejectAdmissionRequest carries the mandatory rejection reason.
type RejectAdmissionRequest struct {
	Reason string `json:"reason"`
}

// AdmissionListQuery is bound from list query strings.
type AdmissionListQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
