// Package seed loads the development data set into the database and removes it again.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"natours/internal/domain/entity"
	reviewadapters "natours/internal/feature/reviews/adapters"
	reviewusecase "natours/internal/feature/reviews/usecase"
	touradapters "natours/internal/feature/tours/adapters"
)

// Data files expected in the import directory.
const (
	ToursFile   = "tours.json"
	UsersFile   = "users.json"
	ReviewsFile = "reviews.json"
)

// seedUser carries the credential fields the API never serializes.
// Passwords in users.json are already bcrypt hashes.
type seedUser struct {
	entity.User
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

type seedTour struct {
	entity.Tour
	Guides []uint `json:"guides"`
}

type seedReview struct {
	entity.Review
	User uint `json:"user"`
}

// Counts reports how many documents an import wrote.
type Counts struct {
	Tours   int
	Users   int
	Reviews int
}

// Seeder imports and deletes the development data.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Import reads the data files from fsys and inserts users, tours with their
// guides and reviews in one transaction. Tour ratings are recalculated afterwards.
func (s *Seeder) Import(ctx context.Context, fsys fs.FS) (Counts, error) {
	var (
		users   []seedUser
		tours   []seedTour
		reviews []seedReview
	)
	if err := readJSON(fsys, UsersFile, &users); err != nil {
		return Counts{}, err
	}
	if err := readJSON(fsys, ToursFile, &tours); err != nil {
		return Counts{}, err
	}
	if err := readJSON(fsys, ReviewsFile, &reviews); err != nil {
		return Counts{}, err
	}

	var reviewed []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ファイル内のidは参照用。実際のidはDBが採番する
		userIDs := make(map[uint]uint, len(users))
		for i := range users {
			u := users[i].User
			src := u.ID
			u.ID = 0
			u.Password = users[i].Password
			u.Email = entity.NormalizeEmail(u.Email)
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("insert user %s: %w", u.Email, err)
			}
			userIDs[src] = u.ID
			// default:trueはゼロ値のboolにも適用されるので、非アクティブは後から更新する
			if a := users[i].Active; a != nil && !*a {
				if err := tx.Model(&entity.User{}).Where("id = ?", u.ID).Update("active", false).Error; err != nil {
					return fmt.Errorf("deactivate user %s: %w", u.Email, err)
				}
			}
		}

		tourIDs := make(map[uint]uint, len(tours))
		for i := range tours {
			t := tours[i].Tour
			src := t.ID
			t.ID = 0
			if t.Slug == "" {
				t.Slug = slug.Make(t.Name)
			}
			t.Guides, t.Reviews = nil, nil
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("insert tour %s: %w", t.Name, err)
			}
			tourIDs[src] = t.ID
			if len(tours[i].Guides) == 0 {
				continue
			}
			rows := make([]map[string]any, 0, len(tours[i].Guides))
			for _, g := range tours[i].Guides {
				id, ok := userIDs[g]
				if !ok {
					return fmt.Errorf("tour %s: unknown guide %d", t.Name, g)
				}
				rows = append(rows, map[string]any{"tour_id": t.ID, "user_id": id})
			}
			if err := tx.Table("tour_guides").Create(rows).Error; err != nil {
				return fmt.Errorf("insert guides of tour %s: %w", t.Name, err)
			}
		}

		seen := make(map[uint]bool, len(tourIDs))
		for i := range reviews {
			r := reviews[i].Review
			tourID, ok := tourIDs[r.TourID]
			if !ok {
				return fmt.Errorf("review %d: unknown tour %d", i, r.TourID)
			}
			userID, ok := userIDs[reviews[i].User]
			if !ok {
				return fmt.Errorf("review %d: unknown user %d", i, reviews[i].User)
			}
			r.ID, r.TourID, r.UserID, r.User = 0, tourID, userID, nil
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("insert review of tour %d: %w", r.TourID, err)
			}
			if !seen[tourID] {
				seen[tourID] = true
				reviewed = append(reviewed, tourID)
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}

	ratings := reviewusecase.NewReviewUsecase(reviewadapters.NewReviewRepository(s.db), touradapters.NewTourRepository(s.db))
	for _, id := range reviewed {
		if err := ratings.RecalculateRatings(ctx, id); err != nil {
			return Counts{}, fmt.Errorf("recalculate ratings of tour %d: %w", id, err)
		}
	}

	counts := Counts{Tours: len(tours), Users: len(users), Reviews: len(reviews)}
	slog.Info("data successfully loaded", "tours", counts.Tours, "users", counts.Users, "reviews", counts.Reviews)
	return counts, nil
}

// Delete removes every booking, review, tour and user.
func (s *Seeder) Delete(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"bookings", "reviews", "tour_guides", "tours", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		slog.Info("data successfully deleted")
		return nil
	})
}

func readJSON(fsys fs.FS, name string, dst any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
