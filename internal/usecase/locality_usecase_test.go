package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/infrastructure/kml"
	apperrors "github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

func TestLocalityUseCase_Load(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		uc := loadedLocalities(t)
		assert.Equal(t, 4, uc.Size())
		assert.False(t, uc.LoadedAt().IsZero())

		loc, err := uc.Get("loc-usa-0")
		require.NoError(t, err)
		assert.Equal(t, "Lucky Strike Mine", loc.Name)
		assert.Equal(t, domain.LocalityMine, loc.Type)
	})

	t.Run("fetch failure leaves empty catalog", func(t *testing.T) {
		uc := usecase.NewLocalityUseCase(&staticSource{err: errors.New("status 503")}, kml.NewParser("loc-usa", nil), nil, logger)
		assert.Equal(t, 0, uc.Load(ctx))
		assert.Equal(t, 0, uc.Size())
		assert.Empty(t, uc.All())
	})

	t.Run("malformed document leaves empty catalog", func(t *testing.T) {
		uc := usecase.NewLocalityUseCase(&staticSource{data: []byte("<kml><Document><Placemark>")}, kml.NewParser("loc-usa", nil), nil, logger)
		assert.Equal(t, 0, uc.Load(ctx))
	})

	t.Run("kmz archive", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("doc.kml")
		require.NoError(t, err)
		_, _ = w.Write(kmlDocument(sampleCatalog[0]))
		require.NoError(t, zw.Close())

		uc := usecase.NewLocalityUseCase(&staticSource{data: buf.Bytes()}, kml.NewParser("loc-usa", nil), nil, logger)
		assert.Equal(t, 1, uc.Load(ctx))
	})
}

func TestLocalityUseCase_Get_NotFound(t *testing.T) {
	uc := loadedLocalities(t)
	_, err := uc.Get("loc-usa-99")
	assert.ErrorIs(t, err, apperrors.ErrLocalityNotFound)
}

func TestLocalityUseCase_FindByName(t *testing.T) {
	uc := loadedLocalities(t)

	loc, ok := uc.FindByName("lucky")
	require.True(t, ok)
	assert.Equal(t, "loc-usa-0", loc.ID)

	_, ok = uc.FindByName("   ")
	assert.False(t, ok)

	_, ok = uc.FindByName("atlantis")
	assert.False(t, ok)
}

func TestLocalityUseCase_List(t *testing.T) {
	uc := loadedLocalities(t)

	t.Run("no filters", func(t *testing.T) {
		resp, err := uc.List(dto.ListLocalitiesRequest{})
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Total)
		assert.Len(t, resp.Localities, 4)
	})

	t.Run("type filter", func(t *testing.T) {
		resp, err := uc.List(dto.ListLocalitiesRequest{Type: "mine"})
		require.NoError(t, err)
		for _, loc := range resp.Localities {
			assert.Equal(t, domain.LocalityMine, loc.Type)
		}
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("query and limit", func(t *testing.T) {
		resp, err := uc.List(dto.ListLocalitiesRequest{Query: "L", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, resp.Localities, 1)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("bbox", func(t *testing.T) {
		// Колорадо
		resp, err := uc.List(dto.ListLocalitiesRequest{BBox: "-109.05,36.99,-102.04,41.0"})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("invalid bbox", func(t *testing.T) {
		_, err := uc.List(dto.ListLocalitiesRequest{BBox: "1,2,3"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

		_, err = uc.List(dto.ListLocalitiesRequest{BBox: "-100,40,-110,30"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
	})
}

func TestLocalityUseCase_Nearby(t *testing.T) {
	uc := loadedLocalities(t)

	resp, err := uc.Nearby(dto.NearbyRequest{Lat: 39.1, Lng: -105.2, RadiusKm: 150})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, "loc-usa-0", resp.Localities[0].ID)
	assert.InDelta(t, 0, resp.Localities[0].DistanceKm, 1e-9)
	for i := 1; i < len(resp.Localities); i++ {
		assert.LessOrEqual(t, resp.Localities[i-1].DistanceKm, resp.Localities[i].DistanceKm)
	}

	_, err = uc.Nearby(dto.NearbyRequest{Lat: 91, Lng: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)

	_, err = uc.Nearby(dto.NearbyRequest{Lat: 39, Lng: -105, RadiusKm: 900})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRadius)
}

func TestLocalityUseCase_ExecuteFunctionCalls(t *testing.T) {
	uc := loadedLocalities(t)

	calls := []domain.FunctionCall{
		{Name: "findLocalitiesNearby", Args: map[string]any{"latitude": 39.1, "longitude": -105.2}},
		// повтор того же района не дублирует результаты
		{Name: "findLocalitiesNearby", Args: map[string]any{"latitude": 39.1, "longitude": -105.2, "radiusMiles": 100.0}},
		{Name: "dropTable", Args: map[string]any{}},
		{Name: "findLocalitiesNearby", Args: map[string]any{"latitude": "north"}},
	}

	locs := uc.ExecuteFunctionCalls(calls)
	ids := make([]string, 0, len(locs))
	for _, l := range locs {
		ids = append(ids, l.ID)
	}
	// 20 миль по умолчанию: только Lucky Strike; 100 миль добавляют Leadville (~95 км) и Gold Hill (~101 км)
	assert.Equal(t, []string{"loc-usa-0", "loc-usa-3", "loc-usa-1"}, ids)
}
