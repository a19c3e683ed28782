package storage

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("storage: invalid document token")
	ErrExpiredToken = errors.New("storage: document token expired")
)

// DocumentRef is what a document token grants access to.
type DocumentRef struct {
	CollegeID string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues tamper-proof, expiring tokens for uploaded admission
// documents. A token is base64url(college \x00 path \x00 unix-expiry) followed
// by "." and a base64url HMAC-SHA256 of that payload.
type SignedURLSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for path inside collegeID's folder.
func (s *SignedURLSigner) Sign(collegeID, path string) (string, time.Time, error) {
	switch {
	case len(s.key) == 0:
		return "", time.Time{}, errors.New("storage: signing secret is empty")
	case collegeID == "" || path == "":
		return "", time.Time{}, errors.New("storage: college and path are required")
	case strings.ContainsRune(collegeID, 0) || strings.ContainsRune(path, 0):
		return "", time.Time{}, errors.New("storage: NUL byte in token field")
	}

	expires := s.now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{collegeID, path, strconv.FormatInt(expires.Unix(), 10)}, "\x00")
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(payload)) + "." + enc.EncodeToString(s.mac([]byte(payload))), expires, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (DocumentRef, error) {
	encPayload, encSig, ok := strings.Cut(token, ".")
	if !ok {
		return DocumentRef{}, ErrInvalidToken
	}
	enc := base64.RawURLEncoding
	payload, err := enc.DecodeString(encPayload)
	if err != nil {
		return DocumentRef{}, ErrInvalidToken
	}
	sig, err := enc.DecodeString(encSig)
	if err != nil || !hmac.Equal(sig, s.mac(payload)) {
		return DocumentRef{}, ErrInvalidToken
	}

	fields := bytes.Split(payload, []byte{0})
	if len(fields) != 3 {
		return DocumentRef{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(string(fields[2]), 10, 64)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("%w: expiry", ErrInvalidToken)
	}
	ref := DocumentRef{CollegeID: string(fields[0]), Path: string(fields[1]), ExpiresAt: time.Unix(unix, 0)}
	if !s.now().Before(ref.ExpiresAt) {
		return ref, ErrExpiredToken
	}
	return ref, nil
}

func (s *SignedURLSigner) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	return h.Sum(nil)
}
