package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPgx5URL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgx5URL("postgres://u:p@h:5432/db?sslmode=disable"))
	require.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	require.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	require.Len(t, downs, len(ups), "every up migration needs a down migration")
}
