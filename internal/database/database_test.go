package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPassword(t *testing.T) {
	dsn, err := WithPassword("sitewerk@tcp(db:3306)/sitewerk?charset=utf8mb4", "geheim")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sitewerk", cfg.User)
	assert.Equal(t, "geheim", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "sitewerk", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestWithPassword_KeepsExistingWhenEmpty(t *testing.T) {
	dsn, err := WithPassword("u:pw@tcp(localhost:3306)/db", "")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "pw", cfg.Passwd)
}

func TestWithPassword_Invalid(t *testing.T) {
	_, err := WithPassword("not a dsn", "x")
	assert.Error(t, err)
}
