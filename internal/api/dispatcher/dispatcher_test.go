package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/app/retry"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type MockModel struct {
	mock.Mock
}

func (m *MockModel) Complete(ctx context.Context, systemPrompt string, conversation []types.Turn) (string, error) {
	args := m.Called(ctx, systemPrompt, conversation)
	return args.String(0), args.Error(1)
}

func (m *MockModel) Name() string { return "mock" }

type MockRegistry struct {
	mock.Mock
	descs []types.ToolDescriptor
}

func (m *MockRegistry) ListTools() []types.ToolDescriptor { return m.descs }

func (m *MockRegistry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	a := m.Called(ctx, name, args)
	return a.Get(0), a.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noWaitToolPolicy() retry.Policy {
	return ToolPolicy(time.Second).WithSleep(func(context.Context, time.Duration) error { return nil })
}

func setupDispatcherTest(reply string, modelErr error) (*Dispatcher, *MockModel, *MockRegistry) {
	model := new(MockModel)
	model.On("Complete", mock.Anything, "system", mock.Anything).Return(reply, modelErr)
	reg := &MockRegistry{descs: tools.NewMockRegistry(testLogger()).ListTools()}
	return New(model, reg, NewFormatter(), noWaitToolPolicy(), testLogger()), model, reg
}

func request(query string) Request {
	return Request{
		SystemPrompt: "system",
		History:      []types.Turn{{Role: types.RoleUser, Content: "hi"}, {Role: types.RoleAssistant, Content: "hello"}},
		Prompt:       "prompt for " + query,
		Query:        query,
	}
}

func TestDispatch_ToolCallIsExecutedAndFormatted(t *testing.T) {
	reply := `{"tool": "search_flights", "arguments": {"from_location": "Rome", "to_location": "Milan"}}`
	model := new(MockModel)
	model.On("Complete", mock.Anything, "system", mock.Anything).Return(reply, nil)
	d := New(model, tools.NewMockRegistry(testLogger()), nil, noWaitToolPolicy(), testLogger())

	out := d.Dispatch(context.Background(), request("flights from Rome to Milan"))

	require.NoError(t, out.Err)
	assert.Equal(t, types.StateDone, out.State)
	assert.Equal(t, []types.DispatchState{
		types.StateAwaitingModelReply, types.StateToolSelected, types.StateToolExecuted,
		types.StateFormatted, types.StateDone,
	}, out.Path)
	assert.Equal(t, tools.SearchFlights, out.Tool)
	assert.Contains(t, out.Text, "Rome")
	assert.Contains(t, out.Text, "Milan")
	assert.Contains(t, out.Text, "https://mockflights.com/book/")
	assert.Contains(t, out.Text, "hotels in Milan")
}

func TestDispatch_PassesArgumentsAndConversation(t *testing.T) {
	reply := "```json\n{\"tool\": \"recommend_attractions\", \"arguments\": {\"location\": \"Rome\"}}\n```"
	d, model, reg := setupDispatcherTest(reply, nil)
	reg.On("CallTool", mock.Anything, tools.RecommendAttractions, map[string]any{"location": "Rome"}).
		Return([]types.Record{{"name": "Colosseum", "description": "Ancient arena"}}, nil).Once()

	out := d.Dispatch(context.Background(), request("what to do in Rome"))

	assert.Equal(t, types.StateDone, out.State)
	assert.Contains(t, out.Text, "Colosseum")
	assert.Contains(t, out.Text, "https://mockattractions.com/visit/colosseum")
	reg.AssertExpectations(t)

	conv := model.Calls[0].Arguments.Get(2).([]types.Turn)
	require.Len(t, conv, 3)
	assert.Equal(t, types.Turn{Role: types.RoleUser, Content: "prompt for what to do in Rome"}, conv[2])
}

func TestDispatch_UnknownToolFallsBackWithoutExecution(t *testing.T) {
	d, _, reg := setupDispatcherTest(`{"tool": "nonexistent_tool", "arguments": {}}`, nil)

	out := d.Dispatch(context.Background(), request("book me a rocket to the moon"))

	assert.Equal(t, types.StateFallback, out.State)
	assert.ErrorIs(t, out.Err, types.ErrUnknownTool)
	assert.Contains(t, out.Text, "I don't have access to the tool needed for this query")
	assert.Contains(t, out.Text, "book me a rocket to the moon")
	reg.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ProseIsReturnedUnchanged(t *testing.T) {
	prose := "  Paris is lovely in spring! {Bring an umbrella.}\n"
	d, _, reg := setupDispatcherTest(prose, nil)

	out := d.Dispatch(context.Background(), request("is Paris nice in spring?"))

	assert.Equal(t, prose, out.Text)
	assert.Equal(t, []types.DispatchState{types.StateAwaitingModelReply, types.StateDirectAnswer, types.StateDone}, out.Path)
	reg.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_JSONWithoutToolKeyIsADirectAnswer(t *testing.T) {
	reply := `{"answer": "Go in May"}`
	d, _, _ := setupDispatcherTest(reply, nil)
	out := d.Dispatch(context.Background(), request("when to go?"))
	assert.Equal(t, reply, out.Text)
	assert.Equal(t, types.StateDone, out.State)
}

func TestDispatch_EmptyResultIsNoResultsMessage(t *testing.T) {
	d, _, reg := setupDispatcherTest(`{"tool": "recommend_hotels", "arguments": {"location": "Atlantis"}}`, nil)
	reg.On("CallTool", mock.Anything, tools.RecommendHotels, mock.Anything).Return([]types.Record{}, nil).Once()

	out := d.Dispatch(context.Background(), request("hotels in Atlantis"))

	require.NoError(t, out.Err)
	assert.Equal(t, types.StateDone, out.State)
	assert.NotEmpty(t, out.Text)
	assert.Contains(t, out.Text, "couldn't find any hotels in Atlantis")
}

func TestDispatch_ModelFailure(t *testing.T) {
	d, _, _ := setupDispatcherTest("", errors.New("connection refused"))

	out := d.Dispatch(context.Background(), request("anything"))

	assert.Equal(t, types.StateFallback, out.State)
	assert.ErrorIs(t, out.Err, types.ErrModelUnavailable)
	assert.Equal(t, modelUnavailableMessage, out.Text)
	assert.NotContains(t, out.Text, "connection refused")
}

func TestDispatch_MissingRequiredArgument(t *testing.T) {
	d, _, reg := setupDispatcherTest(`{"tool": "transport_options", "arguments": {"from_location": "Paris"}}`, nil)

	out := d.Dispatch(context.Background(), request("how do I get there"))

	assert.Equal(t, types.StateFallback, out.State)
	assert.ErrorIs(t, out.Err, types.ErrInvalidArguments)
	assert.Equal(t, missingInfoMessages[tools.TransportOptions], out.Text)
	reg.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ToolFailures(t *testing.T) {
	reply := `{"tool": "recommend_restaurants", "arguments": {"location": "Rome", "cuisine": "italian"}}`

	t.Run("transient failure is retried", func(t *testing.T) {
		d, _, reg := setupDispatcherTest(reply, nil)
		reg.On("CallTool", mock.Anything, tools.RecommendRestaurants, mock.Anything).Return(nil, types.ErrToolUnavailable).Once()
		reg.On("CallTool", mock.Anything, tools.RecommendRestaurants, mock.Anything).
			Return([]any{map[string]any{"name": "Trattoria Roma", "cuisine": "italian", "rating": 4.5}}, nil).Once()

		out := d.Dispatch(context.Background(), request("italian food in Rome"))

		assert.Equal(t, types.StateDone, out.State)
		assert.Contains(t, out.Text, "Trattoria Roma")
		reg.AssertNumberOfCalls(t, "CallTool", 2)
	})

	t.Run("deterministic failure is not retried and not leaked", func(t *testing.T) {
		d, _, reg := setupDispatcherTest(reply, nil)
		reg.On("CallTool", mock.Anything, tools.RecommendRestaurants, mock.Anything).
			Return(nil, errors.New("panic: nil map in restaurant_db.go:42")).Once()

		out := d.Dispatch(context.Background(), request("italian food in Rome"))

		assert.Equal(t, types.StateFallback, out.State)
		assert.Equal(t, toolFailureMessages[tools.RecommendRestaurants], out.Text)
		assert.NotContains(t, out.Text, "restaurant_db.go")
		reg.AssertNumberOfCalls(t, "CallTool", 1)
	})

	t.Run("error record is a tool failure", func(t *testing.T) {
		d, _, reg := setupDispatcherTest(reply, nil)
		reg.On("CallTool", mock.Anything, tools.RecommendRestaurants, mock.Anything).
			Return([]types.Record{{"error": "Invalid date range format"}}, nil).Once()

		out := d.Dispatch(context.Background(), request("italian food in Rome"))

		assert.Equal(t, types.StateFallback, out.State)
		assert.ErrorIs(t, out.Err, types.ErrToolExecution)
		assert.NotContains(t, out.Text, "Invalid date range")
	})
}

func TestDispatch_SingleObjectResultIsNormalized(t *testing.T) {
	d, _, reg := setupDispatcherTest(`{"tool": "transport_options", "arguments": {"from_location": "Paris", "to_location": "Nice"}}`, nil)
	reg.On("CallTool", mock.Anything, tools.TransportOptions, mock.Anything).
		Return(map[string]any{"mode": "train", "duration": "6h", "price_usd": 75.0}, nil).Once()

	out := d.Dispatch(context.Background(), request("Paris to Nice"))

	assert.Equal(t, types.StateDone, out.State)
	assert.Contains(t, out.Text, "- Train: 6h, $75")
}

func TestDispatch_RegisteredToolWithoutRenderer(t *testing.T) {
	model := new(MockModel)
	model.On("Complete", mock.Anything, "system", mock.Anything).Return(`{"tool": "rent_scooter", "arguments": {"city": "Rome"}}`, nil)
	reg := &MockRegistry{descs: []types.ToolDescriptor{{Name: "rent_scooter"}}}
	d := New(model, reg, nil, noWaitToolPolicy(), testLogger())

	out := d.Dispatch(context.Background(), request("scooter in Rome"))

	assert.Equal(t, types.StateFallback, out.State)
	assert.Equal(t, unsupportedToolMessage, out.Text)
	reg.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ToolTimeout(t *testing.T) {
	model := new(MockModel)
	model.On("Complete", mock.Anything, "system", mock.Anything).Return(`{"tool": "recommend_attractions", "arguments": {"location": "Rome"}}`, nil)
	reg := &MockRegistry{descs: tools.NewMockRegistry(testLogger()).ListTools()}
	reg.On("CallTool", mock.Anything, tools.RecommendAttractions, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(nil, context.DeadlineExceeded)
	policy := ToolPolicy(5*time.Millisecond).WithSleep(func(context.Context, time.Duration) error { return nil })
	d := New(model, reg, nil, policy, testLogger())

	out := d.Dispatch(context.Background(), request("things to do in Rome"))

	assert.Equal(t, types.StateFallback, out.State)
	assert.Equal(t, toolFailureMessages[tools.RecommendAttractions], out.Text)
	reg.AssertNumberOfCalls(t, "CallTool", 3)
}
