package db

import (
	"testing"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateDB_CreatesEveryTable(t *testing.T) {
	conn, err := OpenTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(conn) })

	require.NoError(t, MigrateDB(conn))

	for _, m := range Models() {
		assert.True(t, conn.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, conn.Migrator().HasColumn(&model.Business{}, "categories"))
	assert.True(t, conn.Migrator().HasIndex(&model.Review{}, "idx_reviews_business_user"))
}

func TestMigrateDB_IsRepeatable(t *testing.T) {
	conn, err := OpenTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(conn) })

	require.NoError(t, MigrateDB(conn))
	require.NoError(t, MigrateDB(conn))
}

func TestMigrateDB_CategoriesRoundTrip(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(conn) })

	business := model.Business{Name: "Green Grocer", District: "Jongno", Categories: model.Categories{"grocery", "organic"}}
	require.NoError(t, conn.Create(&business).Error)

	var found model.Business
	require.NoError(t, conn.First(&found, business.ID).Error)
	assert.Equal(t, model.Categories{"grocery", "organic"}, found.Categories)
}
