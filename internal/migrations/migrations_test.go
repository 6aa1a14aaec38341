package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	version, err := LatestVersion()
	require.NoError(t, err)
	require.Equal(t, uint(2), version)
}

func TestMigrationFilesArePaired(t *testing.T) {
	entries, err := fs.ReadDir(MigrationFiles, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	require.Equal(t, ups, downs)
}

func TestUpMigrationsAreRerunnable(t *testing.T) {
	entries, err := fs.ReadDir(MigrationFiles, ".")
	require.NoError(t, err)

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		raw, err := fs.ReadFile(MigrationFiles, e.Name())
		require.NoError(t, err)

		for _, stmt := range strings.Split(string(raw), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			require.Contains(t, stmt, "IF NOT EXISTS", "%s: %s", e.Name(), stmt)
		}
	}
}
