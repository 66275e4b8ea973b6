package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medflow-backend/config"
	"medflow-backend/internal/model"
)

func TestDialector(t *testing.T) {
	testCases := []struct {
		driver    string
		name      string
		expectErr bool
	}{
		{driver: "postgres", name: "postgres"},
		{driver: "postgresql", name: "postgres"},
		{driver: "sqlite", name: "sqlite"},
		{driver: "", name: "sqlite"},
		{driver: "mysql", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.driver, func(t *testing.T) {
			d, err := Dialector(&config.DatabaseConfig{Driver: tc.driver, DSN: "x"})
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, d.Name())
		})
	}
}

func TestInit_SQLiteInMemory(t *testing.T) {
	gdb, err := Init(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared"})
	require.NoError(t, err)

	assert.True(t, gdb.Migrator().HasTable(&model.JournalEntry{}))
	assert.True(t, gdb.Migrator().HasTable(&model.PushSubscription{}))
}
