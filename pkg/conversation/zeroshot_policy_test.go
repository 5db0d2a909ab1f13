package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of llm.Provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Send(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) GetModel() string {
	args := m.Called()
	return args.String(0)
}

func newTestZeroShot(t *testing.T, provider llm.Provider) (*ZeroShotPolicy, *[]time.Duration) {
	t.Helper()
	p, err := NewZeroShotPolicy(provider, testCatalog())
	require.NoError(t, err)

	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) {
		slept = append(slept, d)
	}
	return p, &slept
}

func TestNewZeroShotPolicy_Validation(t *testing.T) {
	_, err := NewZeroShotPolicy(nil, testCatalog())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewZeroShotPolicy(new(MockProvider), nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	partial := i18n.New("en", map[string]string{i18n.KeyDiscardHeader: "h"})
	_, err = NewZeroShotPolicy(new(MockProvider), partial)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestZeroShotPolicy_Name(t *testing.T) {
	p, _ := newTestZeroShot(t, new(MockProvider))
	assert.Equal(t, "ZeroShotRelevance", p.Name())
}

func TestZeroShotPolicy_BuildPrompt(t *testing.T) {
	p, _ := newTestZeroShot(t, new(MockProvider))

	got := p.BuildPrompt([]string{"You are Bot.", "Human: hi", "Bot: hello"}, 1)

	want := "Pick 1 to drop:\n\n1. You are Bot.\n2. Human: hi\n3. Bot: hello\n\nAnswer with 1 numbers."
	assert.Equal(t, want, got)
}

func TestZeroShotPolicy_SelectIndicesToEvict(t *testing.T) {
	provider := new(MockProvider)
	p, slept := newTestZeroShot(t, provider)
	turns := []string{"You are Bot.", "Human: hi", "Bot: hello"}

	provider.On("Send", mock.Anything, p.BuildPrompt(turns, 1)).Return("I'd pick 2 and also 2", nil).Once()

	got, err := p.SelectIndicesToEvict(context.Background(), turns, 1)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, []time.Duration{DefaultClassificationBackoff}, *slept)
	provider.AssertExpectations(t)
}

func TestZeroShotPolicy_NoNumbersIsEmptySelection(t *testing.T) {
	provider := new(MockProvider)
	p, _ := newTestZeroShot(t, provider)
	provider.On("Send", mock.Anything, mock.Anything).Return("none of them", nil)

	got, err := p.SelectIndicesToEvict(context.Background(), []string{"a", "b"}, 1)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestZeroShotPolicy_TransportError(t *testing.T) {
	provider := new(MockProvider)
	p, slept := newTestZeroShot(t, provider)
	cause := llm.NewTransportError("mock", 502, errors.New("bad gateway"))
	provider.On("Send", mock.Anything, mock.Anything).Return("", cause)

	_, err := p.SelectIndicesToEvict(context.Background(), []string{"a", "b"}, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrTransport)
	assert.Empty(t, *slept)
}

func TestZeroShotPolicy_WithBackoff(t *testing.T) {
	p, err := NewZeroShotPolicy(new(MockProvider), testCatalog(), WithBackoff(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), p.backoff)

	p, err = NewZeroShotPolicy(new(MockProvider), testCatalog(), WithBackoff(250*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, p.backoff)
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepContext(ctx, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBuffer_WithZeroShotPolicy(t *testing.T) {
	provider := new(MockProvider)
	policy, _ := newTestZeroShot(t, provider)
	provider.On("Send", mock.Anything, mock.Anything).Return("2", nil).Once()

	b := newTestBuffer(t, 3, WithPolicy(policy))
	fill(t, b, 2)

	require.NoError(t, b.AddHumanMessage(context.Background(), "m3"))

	// "2" is the first human turn in the 1-based numbered list.
	assert.Equal(t, []string{"You are Bot.", "m2", "m3"}, texts(b.Turns()))
	provider.AssertExpectations(t)
}
