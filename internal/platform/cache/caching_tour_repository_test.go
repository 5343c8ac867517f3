package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
)

// mockTourRepository はテスト用のTourRepositoryモック実装です。
type mockTourRepository struct {
	tours    map[uint]entity.Tour
	calls    map[string]int
	writeErr error
}

func newMockTourRepository() *mockTourRepository {
	return &mockTourRepository{
		tours: map[uint]entity.Tour{
			1: {ID: 1, Name: "The Forest Hiker", Slug: "the-forest-hiker", Price: 397, Duration: 5},
			2: {ID: 2, Name: "The Sea Explorer", Slug: "the-sea-explorer", Price: 497, Duration: 7},
		},
		calls: map[string]int{},
	}
}

func (m *mockTourRepository) List(context.Context, apifeatures.Directives, ...crud.Filter) ([]entity.Tour, error) {
	m.calls["List"]++
	return []entity.Tour{m.tours[1], m.tours[2]}, nil
}

func (m *mockTourRepository) Get(_ context.Context, id uint) (*entity.Tour, error) {
	m.calls["Get"]++
	t, ok := m.tours[id]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "No tour found with that ID")
	}
	return &t, nil
}

func (m *mockTourRepository) GetBySlug(_ context.Context, slug string) (*entity.Tour, error) {
	m.calls["GetBySlug"]++
	for _, t := range m.tours {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, apperr.New(apperr.ErrNotFound, "There is no tour with that name.")
}

func (m *mockTourRepository) Create(_ context.Context, t *entity.Tour) error {
	m.calls["Create"]++
	return m.writeErr
}

func (m *mockTourRepository) Update(ctx context.Context, id uint, fields map[string]any) (*entity.Tour, error) {
	m.calls["Update"]++
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	t := m.tours[id]
	t.Price = fields["price"].(float64)
	m.tours[id] = t
	return &t, nil
}

func (m *mockTourRepository) Delete(context.Context, uint) error {
	m.calls["Delete"]++
	return m.writeErr
}

func (m *mockTourRepository) SetGuides(context.Context, uint, []uint) error {
	m.calls["SetGuides"]++
	return m.writeErr
}

func (m *mockTourRepository) Stats(context.Context, float64) ([]entity.TourStat, error) {
	m.calls["Stats"]++
	return nil, nil
}

func (m *mockTourRepository) Schedules(context.Context) ([]entity.Tour, error) {
	m.calls["Schedules"]++
	return nil, nil
}

func (m *mockTourRepository) StartLocations(context.Context) ([]entity.Tour, error) {
	m.calls["StartLocations"]++
	return nil, nil
}

func (m *mockTourRepository) UpdateRatings(context.Context, uint, int, float64) error {
	m.calls["UpdateRatings"]++
	return m.writeErr
}

type lookupCounter struct{ hits, misses int }

func (l *lookupCounter) RecordCacheLookup(hit bool) {
	if hit {
		l.hits++
	} else {
		l.misses++
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// TestNewCachingTourRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingTourRepository_Defaults(t *testing.T) {
	t.Parallel()

	repo := NewCachingTourRepository(nil, 0, newMockTourRepository(), "")
	assert.Equal(t, 5*time.Minute, repo.ttl)
	assert.Equal(t, "tours", repo.namespace)

	repo = NewCachingTourRepository(nil, time.Minute, newMockTourRepository(), "custom")
	assert.Equal(t, time.Minute, repo.ttl)
	assert.Equal(t, "custom", repo.namespace)
}

// TestCachingTourRepository_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingTourRepository_NilRedis(t *testing.T) {
	t.Parallel()

	inner := newMockTourRepository()
	repo := NewCachingTourRepository(nil, time.Minute, inner, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.Get(ctx, 1)
		require.NoError(t, err)
	}
	_, err := repo.Update(ctx, 1, map[string]any{"price": 10.0})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls["Get"])
}

// TestCachingTourRepository_GetCachesUntilWrite は書き込みまでキャッシュが使われることを検証します。
func TestCachingTourRepository_GetCachesUntilWrite(t *testing.T) {
	t.Parallel()

	mr, client := newMiniredis(t)
	inner := newMockTourRepository()
	lookups := &lookupCounter{}
	repo := NewCachingTourRepository(client, time.Minute, inner, "").WithMetrics(lookups)
	ctx := context.Background()

	first, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	second, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, inner.calls["Get"], "second read is served from cache")
	assert.True(t, mr.Exists("tours:id:1"))
	assert.Equal(t, 1, lookups.hits)
	assert.Equal(t, 1, lookups.misses)

	bySlug, err := repo.GetBySlug(ctx, "the-sea-explorer")
	require.NoError(t, err)
	assert.Equal(t, uint(2), bySlug.ID)

	_, err = repo.Update(ctx, 1, map[string]any{"price": 450.0})
	require.NoError(t, err)
	assert.False(t, mr.Exists("tours:id:1"), "writes invalidate the namespace")
	assert.False(t, mr.Exists("tours:slug:the-sea-explorer"))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 450.0, got.Price)
	assert.Equal(t, 2, inner.calls["Get"])
}

// TestCachingTourRepository_List はリストがディレクティブごとにキャッシュされることを検証します。
func TestCachingTourRepository_List(t *testing.T) {
	t.Parallel()

	_, client := newMiniredis(t)
	inner := newMockTourRepository()
	repo := NewCachingTourRepository(client, time.Minute, inner, "")
	ctx := context.Background()

	byPrice := apifeatures.New(url.Values{"sort": {"price"}}).Sort()
	byName := apifeatures.New(url.Values{"sort": {"name"}}).Sort()

	for i := 0; i < 3; i++ {
		tours, err := repo.List(ctx, byPrice)
		require.NoError(t, err)
		require.Len(t, tours, 2)
		assert.Equal(t, "The Forest Hiker", tours[0].Name)
	}
	assert.Equal(t, 1, inner.calls["List"])

	_, err := repo.List(ctx, byName)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls["List"], "different directives use different keys")

	scoped := func(tx *gorm.DB) *gorm.DB { return tx }
	_, err = repo.List(ctx, byPrice, scoped)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls["List"], "scoped lists bypass the cache")

	require.NoError(t, repo.UpdateRatings(ctx, 1, 3, 4.7))
	_, err = repo.List(ctx, byPrice)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls["List"])
}

// TestCachingTourRepository_NotFoundIsNotCached は存在しないツアーがキャッシュされないことを検証します。
func TestCachingTourRepository_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	mr, client := newMiniredis(t)
	repo := NewCachingTourRepository(client, time.Minute, newMockTourRepository(), "")

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, mr.Exists("tours:id:99"))
}

// TestCachingTourRepository_CorruptedEntry は壊れたキャッシュエントリが削除されDBから再取得されることを検証します。
func TestCachingTourRepository_CorruptedEntry(t *testing.T) {
	t.Parallel()

	mr, client := newMiniredis(t)
	inner := newMockTourRepository()
	repo := NewCachingTourRepository(client, time.Minute, inner, "")
	require.NoError(t, mr.Set("tours:id:2", "{not json"))

	got, err := repo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "The Sea Explorer", got.Name)
	assert.Equal(t, 1, inner.calls["Get"])
}

// TestCachingTourRepository_InvalidationUsesScan はSCANとDELで名前空間全体が無効化されることを検証します。
func TestCachingTourRepository_InvalidationUsesScan(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "tours:*", 200).SetVal([]string{"tours:id:1", "tours:list:"}, 0)
	mock.ExpectDel("tours:id:1", "tours:list:").SetVal(2)

	repo := NewCachingTourRepository(rdb, time.Minute, newMockTourRepository(), "")
	require.NoError(t, repo.SetGuides(context.Background(), 1, []uint{3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingTourRepository_WriteError は書き込みエラーが伝播され、キャッシュが残ることを検証します。
func TestCachingTourRepository_WriteError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	inner := newMockTourRepository()
	inner.writeErr = errors.New("write failed")
	repo := NewCachingTourRepository(rdb, time.Minute, inner, "")

	err := repo.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, inner.writeErr)
	assert.NoError(t, mock.ExpectationsWereMet(), "no invalidation after a failed delete")
}

// nameFilterRepository はnameの等価条件だけを評価するモックです。
type nameFilterRepository struct {
	*mockTourRepository
}

func (m nameFilterRepository) List(_ context.Context, d apifeatures.Directives, _ ...crud.Filter) ([]entity.Tour, error) {
	m.calls["List"]++
	var out []entity.Tour
	for _, id := range []uint{1, 2} {
		t := m.tours[id]
		match := true
		for _, c := range d.Conditions() {
			if c.Field == "name" && c.Values[len(c.Values)-1] != t.Name {
				match = false
			}
		}
		if match {
			out = append(out, t)
		}
	}
	return out, nil
}

// TestCachingTourRepository_ListKeysDistinguishFilters は空白と下線のように似た条件が別のキーになることを検証します。
func TestCachingTourRepository_ListKeysDistinguishFilters(t *testing.T) {
	t.Parallel()

	_, client := newMiniredis(t)
	inner := nameFilterRepository{newMockTourRepository()}
	repo := NewCachingTourRepository(client, time.Minute, inner, "")
	ctx := context.Background()

	underscore := apifeatures.New(url.Values{"name": {"The_Forest_Hiker"}}).Filter()
	spaced := apifeatures.New(url.Values{"name": {"The Forest Hiker"}}).Filter()
	colon := apifeatures.New(url.Values{"name": {"The:Forest:Hiker"}}).Filter()

	got, err := repo.List(ctx, underscore)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.List(ctx, spaced)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "The Forest Hiker", got[0].Name)

	got, err = repo.List(ctx, colon)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 3, inner.calls["List"])

	got, err = repo.List(ctx, spaced)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, inner.calls["List"], "served from cache")
}
