package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const unknownApplicantName = "Unknown"

// nestedPayloadKeys are the keys under which an application's form data may be nested.
var nestedPayloadKeys = []string{"data", "application_data"}

// applicationRecord is the view of a pending application that field lookups run
// against: its columns at the top level with the submitted form nested under "data".
func applicationRecord(p *models.PendingAdmission) models.JSONMap {
	record := models.JSONMap{
		"id":         p.ID,
		"college_id": p.CollegeID,
		"email":      p.Email,
		"created_at": p.CreatedAt,
	}
	if p.Data != nil {
		record["data"] = map[string]interface{}(p.Data)
	}
	return record
}

// lookupField returns the first non-empty string found for key, trying the top
// level, the nested payload, then case-insensitive matches of both.
func lookupField(record map[string]interface{}, key string) string {
	nested := nestedPayload(record)
	if v := stringAt(record, key); v != "" {
		return v
	}
	if v := stringAt(nested, key); v != "" {
		return v
	}
	if v := stringFold(record, key); v != "" {
		return v
	}
	return stringFold(nested, key)
}

// applicantName resolves the display name of an application.
func applicantName(record map[string]interface{}) string {
	if v := lookupField(record, "full_name"); v != "" {
		return v
	}
	if v := lookupField(record, "name"); v != "" {
		return v
	}
	if first := lookupField(record, "first_name"); first != "" {
		if last := lookupField(record, "last_name"); last != "" {
			return first + " " + last
		}
		return first
	}
	if v := lookupField(record, "applicant_name"); v != "" {
		return v
	}
	if v := lookupField(record, "guardian_name"); v != "" {
		return v
	}
	return unknownApplicantName
}

// applicantEmail resolves the contact email of an application, or "".
func applicantEmail(record map[string]interface{}) string {
	if v := lookupField(record, "email"); v != "" {
		return v
	}
	return lookupField(record, "applicant_email")
}

func nestedPayload(record map[string]interface{}) map[string]interface{} {
	for _, key := range nestedPayloadKeys {
		switch v := record[key].(type) {
		case map[string]interface{}:
			if len(v) > 0 {
				return v
			}
		case models.JSONMap:
			if len(v) > 0 {
				return v
			}
		}
	}
	return nil
}

func stringAt(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func stringFold(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != key && strings.EqualFold(k, key) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := stringAt(m, k); v != "" {
			return v
		}
	}
	return ""
}
