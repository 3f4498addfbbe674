package repository

import (
	"testing"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBusinessTest(t *testing.T) (*gorm.DB, BusinessRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewBusinessRepository(testDB)
}

func TestBusinessRepository_CreateGeneratesUniqueSlug(t *testing.T) {
	_, repo := setupBusinessTest(t)

	first := &model.Business{Name: "Corner Bakery", District: "Mapo"}
	second := &model.Business{Name: "Corner Bakery", District: "Mapo"}
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	assert.Equal(t, "mapo-corner-bakery", first.Slug)
	assert.Equal(t, "mapo-corner-bakery-2", second.Slug)

	found, err := repo.FindBySlug("mapo-corner-bakery-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestBusinessRepository_CategoriesRoundTrip(t *testing.T) {
	_, repo := setupBusinessTest(t)

	business := &model.Business{
		Name:       "Green Grocer",
		District:   "Jongno",
		Categories: model.Categories{"grocery", "organic"},
	}
	require.NoError(t, repo.Create(business))

	found, err := repo.FindByID(business.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"grocery", "organic"}, found.Categories)
}

func TestBusinessRepository_FindAll(t *testing.T) {
	_, repo := setupBusinessTest(t)

	businesses := []*model.Business{
		{Name: "Alpha Cafe", District: "Mapo", Categories: model.Categories{"cafe"}},
		{Name: "Beta Bakery", District: "Mapo", Categories: model.Categories{"bakery", "cafe"}},
		{Name: "Gamma Gym", District: "Jongno", Categories: model.Categories{"fitness"}},
	}
	for _, b := range businesses {
		require.NoError(t, repo.Create(b))
	}

	tests := []struct {
		name      string
		filter    BusinessFilter
		wantNames []string
		wantTotal int64
	}{
		{"all", BusinessFilter{}, []string{"Alpha Cafe", "Beta Bakery", "Gamma Gym"}, 3},
		{"by district", BusinessFilter{District: "Mapo"}, []string{"Alpha Cafe", "Beta Bakery"}, 2},
		{"by category", BusinessFilter{Category: "cafe"}, []string{"Alpha Cafe", "Beta Bakery"}, 2},
		{"by search", BusinessFilter{Search: "Gym"}, []string{"Gamma Gym"}, 1},
		{"paginated", BusinessFilter{Offset: 1, Limit: 1}, []string{"Beta Bakery"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, total, err := repo.FindAll(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			names := make([]string, 0, len(found))
			for _, b := range found {
				names = append(names, b.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestBusinessRepository_Update(t *testing.T) {
	_, repo := setupBusinessTest(t)

	business := &model.Business{Name: "Alpha Cafe", District: "Mapo"}
	require.NoError(t, repo.Create(business))

	business.Description = "Specialty coffee"
	require.NoError(t, repo.Update(business))

	found, err := repo.FindByID(business.ID)
	require.NoError(t, err)
	assert.Equal(t, "Specialty coffee", found.Description)
}

func TestBusinessRepository_BulkCreate(t *testing.T) {
	_, repo := setupBusinessTest(t)

	businesses := []model.Business{
		{Name: "Alpha Cafe", Slug: "mapo-alpha-cafe", District: "Mapo"},
		{Name: "Alpha Cafe", Slug: "mapo-alpha-cafe-2", District: "Mapo"},
		{Name: "Gamma Gym", District: "Jongno", Categories: model.Categories{"fitness"}},
	}
	require.NoError(t, repo.BulkCreate(businesses, 2))

	_, total, err := repo.FindAll(BusinessFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	found, err := repo.FindBySlug("jongno-gamma-gym")
	require.NoError(t, err)
	assert.Equal(t, model.Categories{"fitness"}, found.Categories)

	assert.NoError(t, repo.BulkCreate(nil, 10))
}
