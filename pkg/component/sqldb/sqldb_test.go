package sqldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlopts "github.com/kart-io/camaral-bot/pkg/options/sql"
)

func TestOpenSQLiteInMemory(t *testing.T) {
	opts := sqlopts.NewOptions()
	opts.DSN = "file::memory:"
	opts.MaxOpenConns = 1

	db, err := Open(opts)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	opts := sqlopts.NewOptions()
	opts.Driver = "oracle"

	_, err := Open(opts)
	assert.Error(t, err)
}
