package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/college-admin-api/internal/models"
)

func TestApplicantNamePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		record map[string]interface{}
		want   string
	}{
		{"full name wins over name", map[string]interface{}{"full_name": "A", "name": "B"}, "A"},
		{"nested name", map[string]interface{}{"data": map[string]interface{}{"name": "B"}}, "B"},
		{"nested full name beats top level name", map[string]interface{}{"name": "Top", "data": map[string]interface{}{"full_name": "Nested"}}, "Nested"},
		{"first and last", map[string]interface{}{"first_name": "Ravi", "last_name": "Kumar"}, "Ravi Kumar"},
		{"first only", map[string]interface{}{"data": map[string]interface{}{"first_name": "Ravi"}}, "Ravi"},
		{"applicant name", map[string]interface{}{"applicant_name": "Nila"}, "Nila"},
		{"guardian name", map[string]interface{}{"guardian_name": "Mr. Rao"}, "Mr. Rao"},
		{"case insensitive key", map[string]interface{}{"data": map[string]interface{}{"Full_Name": "Case"}}, "Case"},
		{"application_data fallback", map[string]interface{}{"data": map[string]interface{}{}, "application_data": map[string]interface{}{"name": "Archived"}}, "Archived"},
		{"blank values skipped", map[string]interface{}{"full_name": "  ", "name": "Real"}, "Real"},
		{"unknown", map[string]interface{}{"data": map[string]interface{}{"roll": 12}}, "Unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, applicantName(tc.record))
		})
	}
}

func TestApplicantEmailFromRecord(t *testing.T) {
	p := &models.PendingAdmission{ID: "p", Email: "", Data: models.JSONMap{"applicant_email": "kid@example.com"}}
	assert.Equal(t, "kid@example.com", applicantEmail(applicationRecord(p)))

	p.Email = "top@example.com"
	assert.Equal(t, "top@example.com", applicantEmail(applicationRecord(p)))

	assert.Empty(t, applicantEmail(applicationRecord(&models.PendingAdmission{ID: "q"})))
}
