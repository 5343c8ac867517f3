package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/feature/reviews/adapters"
	touradapters "natours/internal/feature/tours/adapters"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/db/dbtest"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	db    *gorm.DB
	uc    *reviewUsecase
	tour  entity.Tour
	users []entity.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.Open(t)

	tour := entity.Tour{
		Name: "The Forest Hiker", Slug: "the-forest-hiker", Duration: 5, MaxGroupSize: 25,
		Difficulty: entity.DifficultyEasy, Price: 397, Summary: "Breathtaking hike", ImageCover: "tour-1-cover.jpg",
	}
	require.NoError(t, gdb.Create(&tour).Error)

	users := []entity.User{
		{Name: "Sophie Louise Hart", Email: "sophie@example.com", Role: entity.RoleUser, Password: "x"},
		{Name: "Ayla Cornell", Email: "ayls@example.com", Role: entity.RoleUser, Password: "x"},
		{Name: "Admin", Email: "admin@natours.io", Role: entity.RoleAdmin, Password: "x"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	uc := NewReviewUsecase(adapters.NewReviewRepository(gdb), touradapters.NewTourRepository(gdb))
	return fixture{db: gdb, uc: uc, tour: tour, users: users}
}

func (f fixture) storedTour(t *testing.T) entity.Tour {
	t.Helper()
	var tour entity.Tour
	require.NoError(t, f.db.First(&tour, f.tour.ID).Error)
	return tour
}

func TestReviewUsecase_CreateRecalculatesRatings(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	first, err := f.uc.Create(ctx, &f.users[0], CreateInput{TourID: f.tour.ID, Review: "Amazing!", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, f.users[0].ID, first.UserID)
	require.NotNil(t, first.User, "author is populated")
	assert.Equal(t, "Sophie Louise Hart", first.User.Name)
	assert.Empty(t, first.User.Email, "author exposes public fields only")

	tour := f.storedTour(t)
	assert.Equal(t, 1, tour.RatingsQuantity)
	assert.Equal(t, 5.0, tour.RatingsAverage)

	_, err = f.uc.Create(ctx, &f.users[1], CreateInput{TourID: f.tour.ID, Review: "Decent", Rating: 2})
	require.NoError(t, err)
	tour = f.storedTour(t)
	assert.Equal(t, 2, tour.RatingsQuantity)
	assert.Equal(t, 3.5, tour.RatingsAverage)

	_, err = f.uc.Create(ctx, &f.users[0], CreateInput{TourID: f.tour.ID, Review: "Again", Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey, "one review per user and tour")
}

func TestReviewUsecase_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.uc.Create(ctx, &f.users[0], CreateInput{Review: "No tour", Rating: 4})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.uc.Create(ctx, &f.users[0], CreateInput{TourID: 999, Review: "Ghost tour", Rating: 4})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.uc.Create(ctx, &f.users[0], CreateInput{
		TourID: f.tour.ID, Review: `<script>alert("x")</script>Loved it`, Rating: 4,
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(got.Review, "<script>"), "markup is stripped")
	assert.Contains(t, got.Review, "Loved it")
}

func TestReviewUsecase_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	mine, err := f.uc.Create(ctx, &f.users[0], CreateInput{TourID: f.tour.ID, Review: "Good", Rating: 4})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, &f.users[1], CreateInput{TourID: f.tour.ID, Review: "Fine", Rating: 3})
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, &f.users[1], mine.ID, UpdateInput{Rating: ptr(1)})
	assert.ErrorIs(t, err, apperr.ErrForbidden, "others cannot edit")

	updated, err := f.uc.Update(ctx, &f.users[0], mine.ID, UpdateInput{Rating: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "Good", updated.Review)
	assert.Equal(t, 4.0, f.storedTour(t).RatingsAverage)

	require.NoError(t, f.uc.Delete(ctx, &f.users[2], mine.ID), "admins may delete any review")
	tour := f.storedTour(t)
	assert.Equal(t, 1, tour.RatingsQuantity)
	assert.Equal(t, 3.0, tour.RatingsAverage)

	_, err = f.uc.Get(ctx, mine.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := f.uc.List(ctx, apifeatures.New(nil), adapters.ByTour(f.tour.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, f.uc.Delete(ctx, &f.users[1], list[0].ID))

	tour = f.storedTour(t)
	assert.Equal(t, 0, tour.RatingsQuantity, "no reviews resets the defaults")
	assert.Equal(t, entity.DefaultRatingsAverage, tour.RatingsAverage)
}

func TestReviewUsecase_RoundsAverage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i, rating := range []int{5, 4, 4} {
		_, err := f.uc.Create(ctx, &f.users[i], CreateInput{TourID: f.tour.ID, Review: "ok", Rating: rating})
		require.NoError(t, err)
	}
	assert.Equal(t, 4.3, f.storedTour(t).RatingsAverage)
}
