package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/logger"
	"github.com/noah-isme/college-admin-api/pkg/storage"
)

const (
	rejectedByFallback = "Admin"
	sniffLength        = 3072
	maxFilenameLength  = 100
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type admissionRepository interface {
	CreatePending(ctx context.Context, pending *models.PendingAdmission) error
	FindPending(ctx context.Context, id, collegeID string) (*models.PendingAdmission, error)
	ListPending(ctx context.Context, filter models.AdmissionFilter) ([]models.PendingAdmission, int, error)
	DeletePending(ctx context.Context, id, collegeID string) error
	FindDecision(ctx context.Context, pendingID, collegeID string) (*models.AdmissionDecision, error)
	CreateDecision(ctx context.Context, decision *models.AdmissionDecision) error
	FindRejectedByPendingID(ctx context.Context, pendingID, collegeID string) (*models.RejectedAdmission, error)
	CreateRejected(ctx context.Context, rejected *models.RejectedAdmission) error
	ListRejected(ctx context.Context, filter models.AdmissionFilter) ([]models.RejectedAdmission, int, error)
}

type studentRepository interface {
	FindByID(ctx context.Context, id, collegeID string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID, collegeID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type applicantIdentity interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	AdminCreateIdentity(ctx context.Context, email, password string, confirmed bool, metadata models.JSONMap) (*models.Identity, error)
}

type applicantRoles interface {
	ResolveRole(ctx context.Context, identityID, collegeID string) (*models.RoleMatch, error)
}

type documentStore interface {
	SaveStream(objectPath string, r io.Reader) (int64, error)
	Open(objectPath string) (*os.File, error)
	Delete(objectPath string) error
}

type urlSigner interface {
	Sign(collegeID, path string) (string, time.Time, error)
	Verify(token string) (storage.DocumentRef, error)
}

type admissionNotifier interface {
	AdmissionReceived(ctx context.Context, notice AdmissionNotice)
	AdmissionApproved(ctx context.Context, notice AdmissionNotice)
	AdmissionRejected(ctx context.Context, notice AdmissionNotice)
}

type decisionRecorder interface {
	RecordAdmissionDecision(decision models.AdmissionDecisionKind)
}

// AdmissionConfig configures the admission workflow.
type AdmissionConfig struct {
	DefaultStudentPassword string
	PublicBaseURL          string
	MaxFileSizeBytes       int64
	AllowedMIMEs           []string
	SubmissionsPerHour     int
}

// AdmissionService runs applications from submission to approval or rejection.
type AdmissionService struct {
	repo      admissionRepository
	students  studentRepository
	identity  applicantIdentity
	roles     applicantRoles
	colleges  collegeFinder
	profiles  profileFinder
	documents documentStore
	signer    urlSigner
	notifier  admissionNotifier
	limiter   rateLimiter
	metrics   decisionRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AdmissionConfig
}

// NewAdmissionService constructs an AdmissionService.
func NewAdmissionService(
	repo admissionRepository,
	students studentRepository,
	identity applicantIdentity,
	roles applicantRoles,
	colleges collegeFinder,
	profiles profileFinder,
	documents documentStore,
	signer urlSigner,
	notifier admissionNotifier,
	limiter rateLimiter,
	metrics decisionRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	config AdmissionConfig,
) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdmissionService{
		repo:      repo,
		students:  students,
		identity:  identity,
		roles:     roles,
		colleges:  colleges,
		profiles:  profiles,
		documents: documents,
		signer:    signer,
		notifier:  notifier,
		limiter:   limiter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// SubmitApplication stores a public application as pending for its college.
func (s *AdmissionService) SubmitApplication(ctx context.Context, req dto.SubmitApplicationRequest, clientIP string) (*models.PendingAdmission, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid application payload")
	}
	if err := s.throttle(ctx, clientIP); err != nil {
		return nil, err
	}
	college, err := s.colleges.FindByID(ctx, req.CollegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Store(err, "failed to load college")
	}

	pending := &models.PendingAdmission{
		CollegeID: college.ID,
		Email:     strings.ToLower(req.Email),
		Data:      models.JSONMap(req.Data),
	}
	if err := s.repo.CreatePending(ctx, pending); err != nil {
		return nil, appErrors.Store(err, "failed to submit application")
	}
	s.decorate(pending)

	logger.For(ctx, s.logger).Info("admission submitted",
		zap.String("pending_admission_id", pending.ID),
		zap.String("college_id", college.ID),
	)
	s.notify(ctx, noticeReceived, AdmissionNotice{
		Email:         pending.ApplicantEmail,
		ApplicantName: pending.ApplicantName,
		CollegeName:   college.Name,
	})
	return pending, nil
}

// UploadDocument stores an applicant document under the college prefix and
// returns a signed, shareable URL to it.
func (s *AdmissionService) UploadDocument(ctx context.Context, collegeID, filename string, r io.Reader, size int64, clientIP string) (*models.UploadedDocument, error) {
	if _, err := uuid.Parse(collegeID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "college_id must be a valid UUID")
	}
	if s.config.MaxFileSizeBytes > 0 && size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}
	if err := s.throttle(ctx, clientIP); err != nil {
		return nil, err
	}
	if _, err := s.colleges.FindByID(ctx, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Store(err, "failed to load college")
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if n == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if len(s.config.AllowedMIMEs) > 0 && !mimetype.EqualsAny(detected.String(), s.config.AllowedMIMEs...) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s is not allowed", detected.String()))
	}

	objectPath := fmt.Sprintf("%s/%d_%s_%s", collegeID, time.Now().UnixMilli(), randomSuffix(), sanitizeFilename(filename, detected.Extension()))
	body := io.MultiReader(bytes.NewReader(head), r)
	if s.config.MaxFileSizeBytes > 0 {
		body = io.LimitReader(body, s.config.MaxFileSizeBytes+1)
	}
	written, err := s.documents.SaveStream(objectPath, body)
	if err != nil {
		return nil, appErrors.Store(err, "failed to store document")
	}
	if s.config.MaxFileSizeBytes > 0 && written > s.config.MaxFileSizeBytes {
		if delErr := s.documents.Delete(objectPath); delErr != nil {
			s.logger.Warn("failed to remove oversized upload", zap.String("path", objectPath), zap.Error(delErr))
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}

	token, expiresAt, err := s.signer.Sign(collegeID, objectPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document url")
	}
	return &models.UploadedDocument{
		Path:        objectPath,
		URL:         s.config.PublicBaseURL + "/admissions/documents/" + token,
		ContentType: detected.String(),
		Size:        written,
		ExpiresAt:   expiresAt,
	}, nil
}

// OpenDocument resolves a signed document token to the stored file.
func (s *AdmissionService) OpenDocument(ctx context.Context, token string) (*os.File, string, error) {
	ref, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document link is invalid or expired")
	}
	objectPath := ref.Path
	if !strings.HasPrefix(objectPath, ref.CollegeID+"/") {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document link is invalid or expired")
	}
	f, err := s.documents.Open(objectPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, "", appErrors.Store(err, "failed to open document")
	}
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, "", appErrors.Store(err, "failed to read document")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", appErrors.Store(err, "failed to read document")
	}
	return f, detected.String(), nil
}

// ListPending lists the tenant's pending applications newest first.
func (s *AdmissionService) ListPending(ctx context.Context, principal models.Principal, query dto.AdmissionListQuery) ([]models.PendingAdmission, *models.Pagination, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, nil, err
	}
	filter := models.AdmissionFilter{CollegeID: collegeID, Search: strings.TrimSpace(query.Search), Page: query.Page, PageSize: query.PageSize}
	items, total, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list pending admissions")
	}
	for i := range items {
		s.decorate(&items[i])
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	pagination.Normalize()
	return items, pagination, nil
}

// GetPending returns a single pending application of the tenant.
func (s *AdmissionService) GetPending(ctx context.Context, principal models.Principal, id string) (*models.PendingAdmission, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}
	pending, err := s.findPending(ctx, id, collegeID)
	if err != nil {
		return nil, err
	}
	s.decorate(pending)
	return pending, nil
}

// Approve turns a pending application into a student of the tenant. Approving
// an already approved application returns the stored outcome.
func (s *AdmissionService) Approve(ctx context.Context, principal models.Principal, pendingID string) (*models.AdmissionOutcome, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}

	decision, err := s.findDecision(ctx, pendingID, collegeID)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		if decision.Decision != models.AdmissionApproved {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been rejected")
		}
		return s.storedOutcome(ctx, decision), nil
	}

	pending, err := s.findPending(ctx, pendingID, collegeID)
	if err != nil {
		return nil, err
	}
	record := applicationRecord(pending)
	email := strings.ToLower(applicantEmail(record))
	if email == "" {
		return nil, appErrors.ErrMissingEmail
	}
	name := applicantName(record)

	identity, created, err := s.ensureIdentity(ctx, email, name)
	if err != nil {
		return nil, err
	}
	if !created {
		if err := s.checkApplicantRole(ctx, identity.ID, collegeID); err != nil {
			return nil, err
		}
	}
	student, err := s.ensureStudent(ctx, identity, collegeID, name, record)
	if err != nil {
		return nil, err
	}

	userID, studentID := identity.ID, student.ID
	if err := s.repo.CreateDecision(ctx, &models.AdmissionDecision{
		PendingAdmissionID: pending.ID,
		CollegeID:          collegeID,
		Decision:           models.AdmissionApproved,
		UserID:             &userID,
		StudentID:          &studentID,
		DecidedBy:          principal.SessionUserID(),
	}); err != nil {
		return nil, appErrors.Store(err, "failed to record admission decision")
	}
	if err := s.repo.DeletePending(ctx, pending.ID, collegeID); err != nil {
		return nil, appErrors.Store(err, "failed to remove pending admission")
	}
	s.recordDecision(models.AdmissionApproved)

	logger.For(ctx, s.logger).Info("admission approved",
		zap.String("pending_admission_id", pending.ID),
		zap.String("student_id", student.ID),
		zap.Bool("identity_created", created),
	)
	notice := AdmissionNotice{Email: email, ApplicantName: name, CollegeName: s.collegeName(ctx, collegeID)}
	if created {
		notice.DefaultPassword = s.config.DefaultStudentPassword
	}
	s.notify(ctx, noticeApproved, notice)

	return &models.AdmissionOutcome{PendingAdmissionID: pending.ID, Student: student, Identity: identity}, nil
}

// Reject archives a pending application with a mandatory reason. Rejecting an
// already rejected application returns the existing archive row.
func (s *AdmissionService) Reject(ctx context.Context, principal models.Principal, pendingID, reason string) (*models.RejectedAdmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.ErrReasonRequired
	}
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}

	decision, err := s.findDecision(ctx, pendingID, collegeID)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		if decision.Decision != models.AdmissionRejected {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been approved")
		}
		rejected, err := s.repo.FindRejectedByPendingID(ctx, pendingID, collegeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "rejected admission not found")
			}
			return nil, appErrors.Store(err, "failed to load rejected admission")
		}
		return rejected, nil
	}

	pending, err := s.findPending(ctx, pendingID, collegeID)
	if err != nil {
		return nil, err
	}
	record := applicationRecord(pending)

	rejected, err := s.repo.FindRejectedByPendingID(ctx, pending.ID, collegeID)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		rejected = &models.RejectedAdmission{
			PendingAdmissionID: pending.ID,
			CollegeID:          collegeID,
			Email:              strings.ToLower(applicantEmail(record)),
			RejectedBy:         s.rejectedBy(ctx, principal),
			RejectedReason:     reason,
			ApplicationData:    record,
		}
		if err := s.repo.CreateRejected(ctx, rejected); err != nil {
			return nil, appErrors.Store(err, "failed to archive rejected admission")
		}
	default:
		return nil, appErrors.Store(err, "failed to load rejected admission")
	}

	if err := s.repo.CreateDecision(ctx, &models.AdmissionDecision{
		PendingAdmissionID: pending.ID,
		CollegeID:          collegeID,
		Decision:           models.AdmissionRejected,
		DecidedBy:          principal.SessionUserID(),
	}); err != nil {
		return nil, appErrors.Store(err, "failed to record admission decision")
	}
	if err := s.repo.DeletePending(ctx, pending.ID, collegeID); err != nil {
		return nil, appErrors.Store(err, "failed to remove pending admission")
	}
	s.recordDecision(models.AdmissionRejected)

	logger.For(ctx, s.logger).Info("admission rejected",
		zap.String("pending_admission_id", pending.ID),
		zap.String("rejected_by", rejected.RejectedBy),
	)
	if rejected.Email != "" {
		s.notify(ctx, noticeRejected, AdmissionNotice{
			Email:         rejected.Email,
			ApplicantName: applicantName(record),
			CollegeName:   s.collegeName(ctx, collegeID),
			Reason:        reason,
		})
	}
	return rejected, nil
}

// ListRejected lists the tenant's rejected applications newest first.
func (s *AdmissionService) ListRejected(ctx context.Context, principal models.Principal, query dto.AdmissionListQuery) ([]models.RejectedAdmission, *models.Pagination, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, nil, err
	}
	filter := models.AdmissionFilter{CollegeID: collegeID, Search: strings.TrimSpace(query.Search), Page: query.Page, PageSize: query.PageSize}
	items, total, err := s.repo.ListRejected(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list rejected admissions")
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	pagination.Normalize()
	return items, pagination, nil
}

func (s *AdmissionService) findPending(ctx context.Context, id, collegeID string) (*models.PendingAdmission, error) {
	pending, err := s.repo.FindPending(ctx, id, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pending admission not found")
		}
		return nil, appErrors.Store(err, "failed to load pending admission")
	}
	return pending, nil
}

func (s *AdmissionService) findDecision(ctx context.Context, pendingID, collegeID string) (*models.AdmissionDecision, error) {
	decision, err := s.repo.FindDecision(ctx, pendingID, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Store(err, "failed to load admission decision")
	}
	return decision, nil
}

// ensureIdentity reuses the applicant's identity or creates one with the
// default student password. created reports whether a new identity was made.
func (s *AdmissionService) ensureIdentity(ctx context.Context, email, name string) (*models.Identity, bool, error) {
	identity, err := s.identity.FindByEmail(ctx, email)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, false, err
	}

	identity, err = s.identity.AdminCreateIdentity(ctx, email, s.config.DefaultStudentPassword, true, models.JSONMap{"full_name": name})
	if err != nil {
		// A concurrent approval may have created it first.
		if errors.Is(err, appErrors.ErrConflict) {
			identity, err = s.identity.FindByEmail(ctx, email)
			if err != nil {
				return nil, false, err
			}
			return identity, false, nil
		}
		return nil, false, err
	}
	return identity, true, nil
}

// checkApplicantRole refuses to enrol an existing identity that already holds
// a non-student role in the college.
func (s *AdmissionService) checkApplicantRole(ctx context.Context, identityID, collegeID string) error {
	match, err := s.roles.ResolveRole(ctx, identityID, collegeID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if match.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("email already holds the %s role in this college", match.Role))
	}
	return nil
}

func (s *AdmissionService) ensureStudent(ctx context.Context, identity *models.Identity, collegeID, name string, record models.JSONMap) (*models.Student, error) {
	student, err := s.students.FindByUserID(ctx, identity.ID, collegeID)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to load student")
	}

	student = &models.Student{
		UserID:       identity.ID,
		Email:        identity.Email,
		CollegeID:    collegeID,
		FullName:     &name,
		RollNumber:   optionalField(record, "roll_number"),
		Program:      optionalField(record, "program"),
		Branch:       optionalField(record, "branch"),
		AcademicYear: optionalField(record, "academic_year"),
	}
	if docs, ok := nestedPayload(record)["documents"].(map[string]interface{}); ok {
		student.Documents = models.JSONMap(docs)
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Store(err, "failed to create student")
	}
	return student, nil
}

// storedOutcome rebuilds the result of an earlier approval. Missing rows are
// left nil rather than failing the retry.
func (s *AdmissionService) storedOutcome(ctx context.Context, decision *models.AdmissionDecision) *models.AdmissionOutcome {
	outcome := &models.AdmissionOutcome{PendingAdmissionID: decision.PendingAdmissionID, AlreadyDecided: true}
	if decision.StudentID != nil {
		if student, err := s.students.FindByID(ctx, *decision.StudentID, decision.CollegeID); err == nil {
			outcome.Student = student
		} else {
			s.logger.Warn("approved student lookup failed", zap.String("student_id", *decision.StudentID), zap.Error(err))
		}
	}
	if decision.UserID != nil {
		if identity, err := s.identity.FindByID(ctx, *decision.UserID); err == nil {
			outcome.Identity = identity
		} else {
			s.logger.Warn("approved identity lookup failed", zap.String("user_id", *decision.UserID), zap.Error(err))
		}
	}
	return outcome
}

func (s *AdmissionService) rejectedBy(ctx context.Context, principal models.Principal) string {
	if s.profiles != nil {
		if profile, err := s.profiles.FindByID(ctx, principal.SessionUserID()); err == nil && profile != nil {
			if name := strings.TrimSpace(profile.FullName); name != "" {
				return name
			}
		}
	}
	if email := strings.TrimSpace(principal.SessionEmail()); email != "" {
		return email
	}
	return rejectedByFallback
}

func (s *AdmissionService) collegeName(ctx context.Context, collegeID string) string {
	college, err := s.colleges.FindByID(ctx, collegeID)
	if err != nil || college == nil {
		return ""
	}
	return college.Name
}

func (s *AdmissionService) throttle(ctx context.Context, clientIP string) error {
	if s.limiter == nil || s.config.SubmissionsPerHour <= 0 || clientIP == "" {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, "admission:ip:"+clientIP, s.config.SubmissionsPerHour, time.Hour)
	if err != nil {
		s.logger.Warn("admission rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrRateLimited, "too many submissions, try again later")
	}
	return nil
}

func (s *AdmissionService) decorate(p *models.PendingAdmission) {
	record := applicationRecord(p)
	p.ApplicantName = applicantName(record)
	p.ApplicantEmail = strings.ToLower(applicantEmail(record))
}

func (s *AdmissionService) notify(ctx context.Context, event string, notice AdmissionNotice) {
	if s.notifier == nil || notice.Email == "" {
		return
	}
	switch event {
	case noticeReceived:
		s.notifier.AdmissionReceived(ctx, notice)
	case noticeApproved:
		s.notifier.AdmissionApproved(ctx, notice)
	case noticeRejected:
		s.notifier.AdmissionRejected(ctx, notice)
	}
}

func (s *AdmissionService) recordDecision(kind models.AdmissionDecisionKind) {
	if s.metrics != nil {
		s.metrics.RecordAdmissionDecision(kind)
	}
}

func optionalField(record models.JSONMap, key string) *string {
	if v := lookupField(record, key); v != "" {
		return &v
	}
	return nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func sanitizeFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file" + ext
	}
	if len(base) > maxFilenameLength {
		base = base[len(base)-maxFilenameLength:]
	}
	return base
}
