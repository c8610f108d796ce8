package reliability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/ltpboard/ltpboard/internal/testing"
)

func TestDatabaseMaintenanceJob(t *testing.T) {
	db := testhelpers.NewTestDB(t, "history")
	job := NewDatabaseMaintenanceJob(context.Background(), db, zerolog.Nop())

	assert.Equal(t, "database_maintenance", job.Name())
	require.NoError(t, job.Run())
}

func TestDatabaseMaintenanceJob_ClosedDatabase(t *testing.T) {
	db := testhelpers.NewTestDB(t, "history")
	require.NoError(t, db.Close())

	job := NewDatabaseMaintenanceJob(context.Background(), db, zerolog.Nop())
	assert.Error(t, job.Run())
}
