package seed

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/platform/db/dbtest"
)

func count(t *testing.T, gdb *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Table(table).Count(&n).Error)
	return n
}

func TestSeeder_ImportDevData(t *testing.T) {
	gdb := dbtest.Open(t)
	s := NewSeeder(gdb)

	counts, err := s.Import(context.Background(), os.DirFS("../../../dev-data/data"))
	require.NoError(t, err)
	assert.Equal(t, Counts{Tours: 3, Users: 6, Reviews: 4}, counts)

	var forest entity.Tour
	require.NoError(t, gdb.Where("slug = ?", "the-forest-hiker").First(&forest).Error)
	assert.Equal(t, 2, forest.RatingsQuantity)
	assert.InDelta(t, 4.5, forest.RatingsAverage, 0.001)
	assert.Len(t, forest.StartDates, 3)
	assert.Equal(t, "Banff, CAN", forest.StartLocation.Description)

	var guides int64
	require.NoError(t, gdb.Table("tour_guides").Where("tour_id = ?", forest.ID).Count(&guides).Error)
	assert.EqualValues(t, 2, guides)

	var inactive entity.User
	require.NoError(t, gdb.Where("email = ?", "max@example.com").First(&inactive).Error)
	assert.False(t, inactive.Active)
	assert.NotEmpty(t, inactive.Password)

	var sophie entity.User
	require.NoError(t, gdb.Where("email = ?", "sophie@example.com").First(&sophie).Error)
	assert.True(t, sophie.Active)
	assert.Equal(t, entity.RoleUser, sophie.Role)
}

func TestSeeder_Delete(t *testing.T) {
	gdb := dbtest.Open(t)
	s := NewSeeder(gdb)
	_, err := s.Import(context.Background(), os.DirFS("../../../dev-data/data"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background()))

	for _, table := range []string{"bookings", "reviews", "tour_guides", "tours", "users"} {
		assert.Zero(t, count(t, gdb, table), table)
	}
}

func TestSeeder_Import_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name:  "missing file",
			files: fstest.MapFS{UsersFile: {Data: []byte(`[]`)}},
			want:  "read tours.json",
		},
		{
			name: "malformed json",
			files: fstest.MapFS{
				UsersFile:   {Data: []byte(`[{`)},
				ToursFile:   {Data: []byte(`[]`)},
				ReviewsFile: {Data: []byte(`[]`)},
			},
			want: "parse users.json",
		},
		{
			name: "unknown guide",
			files: fstest.MapFS{
				UsersFile:   {Data: []byte(`[]`)},
				ToursFile:   {Data: []byte(`[{"id":1,"name":"The Park Camper","duration":10,"maxGroupSize":15,"difficulty":"medium","price":1497,"summary":"s","imageCover":"c.jpg","guides":[9]}]`)},
				ReviewsFile: {Data: []byte(`[]`)},
			},
			want: "unknown guide 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb := dbtest.Open(t)
			_, err := NewSeeder(gdb).Import(context.Background(), tt.files)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, count(t, gdb, "tours"), "the import is all or nothing")
		})
	}
}
