package database

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "admin", Password: "p@ss word", Name: "college", SSLMode: "disable"})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	pwd, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pwd)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/college", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "college-admin-api", u.Query().Get("application_name"))
}

func TestPQErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}

	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom")))
}
