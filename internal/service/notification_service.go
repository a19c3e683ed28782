package service

import (
	"bytes"
	"context"
	"fmt"
	netmail "net/mail"
	"text/template"

	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/pkg/jobs"
	"github.com/noah-isme/college-admin-api/pkg/mail"
)

const (
	noticeReceived = "received"
	noticeApproved = "approved"
	noticeRejected = "rejected"
)

// JobTypeSendEmail is the queue job type for outbound email.
const JobTypeSendEmail = "notification.email"

// AdmissionNotice carries what the admission emails mention.
type AdmissionNotice struct {
	Email           string
	ApplicantName   string
	CollegeName     string
	Reason          string
	DefaultPassword string
}

var admissionTemplates = map[string]*template.Template{
	noticeReceived: template.Must(template.New("received").Parse(`Dear {{.ApplicantName}},

We have received your application to {{.CollegeName}}. Our admissions team will review it and contact you at this address.
`)),
	noticeApproved: template.Must(template.New("approved").Parse(`Dear {{.ApplicantName}},

Congratulations! Your application to {{.CollegeName}} has been approved.

You can now sign in to the student portal with this email address.
{{- if .DefaultPassword}}
Your temporary password is: {{.DefaultPassword}}
Please change it after your first sign-in.
{{- end}}
`)),
	noticeRejected: template.Must(template.New("rejected").Parse(`Dear {{.ApplicantName}},

Thank you for applying to {{.CollegeName}}. After review, we are unable to offer you admission at this time.

Reason: {{.Reason}}
`)),
}

var admissionSubjects = map[string]string{
	noticeReceived: "Application received",
	noticeApproved: "Admission approved",
	noticeRejected: "Admission decision",
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type notificationRecorder interface {
	RecordNotification(status string)
}

// NotificationService renders admission emails and hands them to the job queue.
type NotificationService struct {
	queue   jobEnqueuer
	sender  mail.Sender
	metrics notificationRecorder
	enabled bool
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(queue jobEnqueuer, sender mail.Sender, metrics notificationRecorder, enabled bool, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, sender: sender, metrics: metrics, enabled: enabled, logger: logger}
}

// AdmissionReceived tells the applicant their application arrived.
func (s *NotificationService) AdmissionReceived(ctx context.Context, notice AdmissionNotice) {
	s.enqueue(ctx, noticeReceived, notice)
}

// AdmissionApproved tells the applicant they were admitted and how to sign in.
func (s *NotificationService) AdmissionApproved(ctx context.Context, notice AdmissionNotice) {
	s.enqueue(ctx, noticeApproved, notice)
}

// AdmissionRejected tells the applicant the decision and its reason.
func (s *NotificationService) AdmissionRejected(ctx context.Context, notice AdmissionNotice) {
	s.enqueue(ctx, noticeRejected, notice)
}

// HandleJob delivers a queued email. Errors are retried by the queue.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.record("failed")
		return err
	}
	s.record("sent")
	return nil
}

func (s *NotificationService) enqueue(ctx context.Context, event string, notice AdmissionNotice) {
	logger := s.logger.With(zap.String("event", event))
	if notice.Email == "" {
		logger.Warn("notification skipped, no recipient")
		return
	}
	if !s.enabled || s.queue == nil {
		logger.Info("notifications disabled, event dropped")
		s.record("dropped")
		return
	}

	msg, err := renderAdmissionEmail(event, notice)
	if err != nil {
		logger.Error("failed to render notification", zap.Error(err))
		s.record("failed")
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeSendEmail, Payload: msg}); err != nil {
		logger.Error("failed to enqueue notification", zap.Error(err))
		s.record("failed")
	}
}

func renderAdmissionEmail(event string, notice AdmissionNotice) (mail.Message, error) {
	tmpl, ok := admissionTemplates[event]
	if !ok {
		return mail.Message{}, fmt.Errorf("unknown notification %q", event)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, notice); err != nil {
		return mail.Message{}, fmt.Errorf("render %s notification: %w", event, err)
	}
	return mail.Message{
		To:          []netmail.Address{{Name: notice.ApplicantName, Address: notice.Email}},
		Subject:     admissionSubjects[event],
		TextContent: body.String(),
	}, nil
}

func (s *NotificationService) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(status)
	}
}
