package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }

func TestDecodeCall(t *testing.T) {
	tests := []struct {
		name    string
		req     types.ToolCallRequest
		want    Call
		wantErr error
	}{
		{
			name: "flights without date range",
			req:  types.ToolCallRequest{Tool: SearchFlights, Arguments: map[string]any{"from_location": "Rome", "to_location": "Milan"}},
			want: FlightSearchCall{FromLocation: "Rome", ToLocation: "Milan"},
		},
		{
			name:    "flights missing destination",
			req:     types.ToolCallRequest{Tool: SearchFlights, Arguments: map[string]any{"from_location": "Rome"}},
			wantErr: types.ErrInvalidArguments,
		},
		{
			name:    "object where a string is expected",
			req:     types.ToolCallRequest{Tool: RecommendAttractions, Arguments: map[string]any{"location": map[string]any{"city": "Rome"}}},
			wantErr: types.ErrInvalidArguments,
		},
		{
			name: "hotel budget defaults to medium",
			req:  types.ToolCallRequest{Tool: RecommendHotels, Arguments: map[string]any{"location": "Paris"}},
			want: HotelRecommendationCall{Location: "Paris", Budget: types.BudgetMedium},
		},
		{
			name: "hotel budget synonyms",
			req:  types.ToolCallRequest{Tool: RecommendHotels, Arguments: map[string]any{"location": "Paris", "budget": "Luxury"}},
			want: HotelRecommendationCall{Location: "Paris", Budget: types.BudgetHigh},
		},
		{
			name: "cuisine list takes first entry",
			req:  types.ToolCallRequest{Tool: RecommendRestaurants, Arguments: map[string]any{"location": "Rome", "cuisine": []any{"Italian", "any"}}},
			want: RestaurantRecommendationCall{Location: "Rome", Cuisine: "italian"},
		},
		{
			name:    "nil arguments for transport",
			req:     types.ToolCallRequest{Tool: TransportOptions},
			wantErr: types.ErrInvalidArguments,
		},
		{
			name: "seasonal advice accepts location alias",
			req:  types.ToolCallRequest{Tool: SeasonalTravelAdvice, Arguments: map[string]any{"location": "Japan"}},
			want: SeasonalAdviceCall{Destination: "Japan"},
		},
		{
			name:    "unknown tool",
			req:     types.ToolCallRequest{Tool: "book_spaceship"},
			wantErr: types.ErrUnknownTool,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCall(tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.req.Tool, got.ToolName())
		})
	}
}

func TestStaticRegistry_ListTools(t *testing.T) {
	r := NewMockRegistryAt(testLogger(), fixedNow)
	descs := r.ListTools()
	require.Len(t, descs, 6)
	assert.Equal(t, SearchFlights, descs[0].Name)
	assert.Equal(t, []string{"from_location", "to_location"}, descs[0].RequiredParams())
	assert.Equal(t, []string{
		RecommendAttractions, RecommendHotels, RecommendRestaurants,
		SearchFlights, SeasonalTravelAdvice, TransportOptions,
	}, r.Names())
}

func TestStaticRegistry_CallTool(t *testing.T) {
	r := NewMockRegistryAt(testLogger(), fixedNow)
	ctx := context.Background()

	t.Run("flights fill in a default date range", func(t *testing.T) {
		res, err := r.CallTool(ctx, SearchFlights, map[string]any{"from_location": "rome", "to_location": "Milan"})
		require.NoError(t, err)
		flights, ok := res.([]types.Record)
		require.True(t, ok)
		require.Len(t, flights, 3)
		for _, f := range flights {
			assert.Equal(t, "Rome (FCO)", f["from"])
			assert.Equal(t, "Milan (MXP)", f["to"])
			dep, err := time.Parse(dateLayout, f["departure_date"].(string))
			require.NoError(t, err)
			assert.False(t, dep.Before(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
			assert.False(t, dep.After(time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)))
		}
	})

	t.Run("flights are deterministic", func(t *testing.T) {
		args := map[string]any{"from_location": "Paris", "to_location": "Tokyo", "date_range": "2025-06-01 to 2025-06-10"}
		a, err := r.CallTool(ctx, SearchFlights, args)
		require.NoError(t, err)
		b, err := r.CallTool(ctx, SearchFlights, args)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("inverted date range fails", func(t *testing.T) {
		_, err := r.CallTool(ctx, SearchFlights, map[string]any{"from_location": "Paris", "to_location": "Rome", "date_range": "2025-06-10 to 2025-06-01"})
		require.Error(t, err)
		var toolErr *types.ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, SearchFlights, toolErr.Tool)
	})

	t.Run("hotels by budget", func(t *testing.T) {
		res, err := r.CallTool(ctx, RecommendHotels, map[string]any{"location": "Rome", "budget": "low"})
		require.NoError(t, err)
		hotels := res.([]types.Record)
		require.Len(t, hotels, 2)
		assert.Equal(t, "Budget Inn", hotels[0]["name"])
		assert.Equal(t, "https://mockhotels.com/book/budgetinn", hotels[0]["mock_booking_link"])
	})

	t.Run("attractions fall back to generic list", func(t *testing.T) {
		res, err := r.CallTool(ctx, RecommendAttractions, map[string]any{"location": "lisbon"})
		require.NoError(t, err)
		got := res.([]types.Record)
		assert.Equal(t, "Main Square", got[0]["name"])
		assert.Equal(t, "Lisbon", got[0]["location"])
	})

	t.Run("transport returns one object keyed by mode", func(t *testing.T) {
		res, err := r.CallTool(ctx, TransportOptions, map[string]any{"from_location": "Rome", "to_location": "Naples"})
		require.NoError(t, err)
		rec := res.(types.Record)
		assert.Len(t, rec, 4)
		assert.Equal(t, "6h", rec["train"].(map[string]any)["duration"])
	})

	t.Run("seasonal advice returns a string", func(t *testing.T) {
		res, err := r.CallTool(ctx, SeasonalTravelAdvice, map[string]any{"destination": "greece"})
		require.NoError(t, err)
		assert.Contains(t, res, "April and June")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := r.CallTool(ctx, "nonexistent_tool", nil)
		assert.ErrorIs(t, err, types.ErrUnknownTool)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.CallTool(cctx, RecommendAttractions, map[string]any{"location": "Rome"})
		assert.ErrorIs(t, err, types.ErrToolUnavailable)
	})
}

func TestCachedRegistry(t *testing.T) {
	var calls atomic.Int32
	inner := NewStaticRegistry(testLogger(), Tool{
		Descriptor: types.ToolDescriptor{Name: RecommendAttractions},
		Handler: func(ctx context.Context, c Call) (any, error) {
			calls.Add(1)
			time.Sleep(10 * time.Millisecond)
			return []types.Record{{"name": "Colosseum"}}, nil
		},
	})
	r := NewCachedRegistry(inner, time.Minute, time.Minute, testLogger())
	args := map[string]any{"location": "Rome"}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CallTool(context.Background(), RecommendAttractions, args)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := r.CallTool(context.Background(), RecommendAttractions, args)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	r.Flush()
	_, err = r.CallTool(context.Background(), RecommendAttractions, args)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedRegistry_ErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	inner := NewStaticRegistry(testLogger(), Tool{
		Descriptor: types.ToolDescriptor{Name: RecommendAttractions},
		Handler: func(ctx context.Context, c Call) (any, error) {
			calls.Add(1)
			return nil, types.ErrToolUnavailable
		},
	})
	r := NewCachedRegistry(inner, time.Minute, time.Minute, testLogger())
	for range 2 {
		_, err := r.CallTool(context.Background(), RecommendAttractions, map[string]any{"location": "Rome"})
		assert.ErrorIs(t, err, types.ErrToolUnavailable)
	}
	assert.Equal(t, int32(2), calls.Load())
}
