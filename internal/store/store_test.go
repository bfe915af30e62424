package store

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testGuildID = "123456789012345678"
	testUserID  = "234567890123456789"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	return db
}

func testAudit(t *testing.T, db *gorm.DB) *AuditStore {
	t.Helper()
	return NewAuditStore(db, zerolog.Nop())
}
