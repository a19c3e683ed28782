package service

import (
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

// tenantOf returns the college the principal's session is bound to.
func tenantOf(principal models.Principal) (string, error) {
	if principal == nil || principal.SessionUserID() == "" {
		return "", appErrors.ErrUnauthorized
	}
	collegeID := principal.SessionCollegeID()
	if collegeID == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "session is not bound to a college")
	}
	return collegeID, nil
}
