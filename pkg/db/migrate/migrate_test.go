package migrate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestToMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", toMigrateURL("postgresql://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h/db", toMigrateURL("postgres://u:p@h/db"))
	assert.Equal(t, "pgx5://h/db", toMigrateURL("pgx5://h/db"))
}
