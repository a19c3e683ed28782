package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var applicant = mail.Address{Name: "Asha Rao", Address: "asha@example.com"}

func TestConsoleSenderRecordsMessages(t *testing.T) {
	s := NewConsoleSender("College Admin", mail.Address{Address: "no-reply@college.local"}, nil)
	err := s.Send(context.Background(), Message{To: []mail.Address{applicant}, Subject: "Hello", TextContent: "Hi"})
	require.NoError(t, err)
	require.Len(t, s.Sent(), 1)
	assert.Equal(t, "Hello", s.Sent()[0].Subject)

	err = s.Send(context.Background(), Message{Subject: "nobody"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendgridSenderBuildsV3Request(t *testing.T) {
	s := NewSendgridSender("key", "College Admin", mail.Address{Name: "Admissions", Address: "admissions@college.edu"})
	var captured rest.Request
	s.api = func(req rest.Request) (*rest.Response, error) {
		captured = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	err := s.Send(context.Background(), Message{To: []mail.Address{applicant}, Subject: "Admission approved", TextContent: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, rest.Method(http.MethodPost), captured.Method)
	assert.Equal(t, "Bearer key", captured.Headers["Authorization"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.Body, &body))
	personalizations := body["personalizations"].([]interface{})
	assert.Equal(t, "[College Admin] Admission approved", personalizations[0].(map[string]interface{})["subject"])
}

func TestSendgridSenderSurfacesFailures(t *testing.T) {
	s := NewSendgridSender("key", "College Admin", mail.Address{Address: "admissions@college.edu"})
	s.api = func(req rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"}, nil
	}
	err := s.Send(context.Background(), Message{To: []mail.Address{applicant}, Subject: "x", TextContent: "y"})
	require.Error(t, err)

	s.api = func(req rest.Request) (*rest.Response, error) { return nil, errors.New("dial tcp") }
	err = s.Send(context.Background(), Message{To: []mail.Address{applicant}, Subject: "x", TextContent: "y"})
	require.Error(t, err)
}
