package modules

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
	return "mock-model"
}

func routerCatalog() *i18n.Catalog {
	return i18n.New("en", map[string]string{
		i18n.KeyModuleRouterHeader:  "Input: ({input}). Which option fits?",
		i18n.KeyModuleRouterFooter:  "Choose one.",
		i18n.KeyModuleRouterChatbot: "Chatbot",
	})
}

func testRegistry(t *testing.T, prompts ...string) *Registry {
	t.Helper()
	r := NewRegistry()
	for i, p := range prompts {
		require.NoError(t, r.Add(NewModule(Metadata{Name: string(rune('a' + i)), DescriptionPrompt: p})))
	}
	return r
}

func newTestRouter(t *testing.T, provider llm.Provider, registry *Registry) *Router {
	t.Helper()
	r, err := NewRouter(provider, routerCatalog(), registry)
	require.NoError(t, err)
	r.sleep = func(context.Context, time.Duration) {}
	return r
}

func TestRegistry_AddAndDescriptions(t *testing.T) {
	r := testRegistry(t, "Writes Python", "Reports the weather")

	assert.Error(t, r.Add(NewModule(Metadata{Name: "a"})))
	assert.Equal(t, 2, r.Len())

	m, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Reports the weather", m.Metadata.DescriptionPrompt)

	text, count := r.Descriptions("Chatbot")
	assert.Equal(t, 2, count)
	assert.Equal(t, "\t1. Writes Python\n\t2. Reports the weather\n\t3. Chatbot", text)
}

func TestRegistry_DescriptionsEmpty(t *testing.T) {
	text, count := NewRegistry().Descriptions("Chatbot")
	assert.Equal(t, 0, count)
	assert.Equal(t, "\t1. Chatbot", text)
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(nil, routerCatalog(), NewRegistry())
	assert.Error(t, err)

	_, err = NewRouter(new(MockProvider), i18n.New("en", nil), NewRegistry())
	assert.ErrorIs(t, err, i18n.ErrMissingKey)
}

func TestRouter_BuildPrompt(t *testing.T) {
	r := newTestRouter(t, new(MockProvider), testRegistry(t, "Writes Python"))

	want := "Input: (sort a list). Which option fits?\n\t1. Writes Python\n\t2. Chatbot\nChoose one."
	assert.Equal(t, want, r.BuildPrompt("sort a list"))
}

func TestRouter_Route(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"first module", "1", "a"},
		{"second module in prose", "Option 2 fits best, not 1", "b"},
		{"chatbot option", "3. Chatbot", ""},
		{"out of range", "42", ""},
		{"zero", "0", ""},
		{"no number", "the chatbot", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockProvider)
			provider.On("Send", mock.Anything, mock.Anything).Return(tt.reply, nil).Once()
			r := newTestRouter(t, provider, testRegistry(t, "Writes Python", "Reports the weather"))

			got, err := r.Route(context.Background(), "help me")
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.want, got.Name())
			}
			provider.AssertExpectations(t)
		})
	}
}

func TestRouter_RouteUsesOneSnapshot(t *testing.T) {
	registry := testRegistry(t, "Writes Python")
	var prompt string
	provider := llm.ProviderFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		// A module registered while the request is in flight must not shift
		// the meaning of the numbers already shown.
		require.NoError(t, registry.Add(NewModule(Metadata{Name: "late", DescriptionPrompt: "Arrives late"})))
		return "2", nil
	})
	r := newTestRouter(t, provider, registry)

	got, err := r.Route(context.Background(), "hi")
	require.NoError(t, err)

	assert.Nil(t, got)
	assert.Contains(t, prompt, "\t2. Chatbot")
	assert.NotContains(t, prompt, "Arrives late")
	assert.Equal(t, 2, registry.Len())
}

func TestRouter_Lookup(t *testing.T) {
	r := newTestRouter(t, new(MockProvider), testRegistry(t, "Writes Python"))

	m, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "Writes Python", m.Metadata.DescriptionPrompt)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRouter_RouteWithoutModulesSkipsRequest(t *testing.T) {
	provider := new(MockProvider)
	r := newTestRouter(t, provider, NewRegistry())

	got, err := r.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, got)
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRouter_RouteTransportError(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Send", mock.Anything, mock.Anything).Return("", llm.NewTransportError("mock", 500, errors.New("down")))
	r := newTestRouter(t, provider, testRegistry(t, "Writes Python"))

	_, err := r.Route(context.Background(), "hi")
	assert.ErrorIs(t, err, llm.ErrTransport)
}

func TestRouter_Backoff(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Send", mock.Anything, mock.Anything).Return("1", nil)

	r, err := NewRouter(provider, routerCatalog(), testRegistry(t, "Writes Python"), WithRouteBackoff(3*time.Second))
	require.NoError(t, err)
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	_, err = r.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
}

func TestBuild_PromptPipeline(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Send", mock.Anything, "Describe the function.\n\nsort numbers").Return(" a sort function ", nil).Once()
	provider.On("Send", mock.Anything, "Write it.\n\na sort function").Return("func sort() {}", nil).Once()

	meta := &Metadata{
		Name:              "python",
		DescriptionPrompt: "Writes code",
		Steps: []Step{
			{Stage: StageTask, Name: "write", Prompt: "Write it."},
			{Stage: StageFeature, Name: "describe", Prompt: "Describe the function.", Fallback: "cannot help"},
		},
	}
	m, err := Build(meta, provider)
	require.NoError(t, err)

	out, err := m.Execute(context.Background(), "sort numbers")
	require.NoError(t, err)
	assert.Equal(t, "func sort() {}", out)
	provider.AssertExpectations(t)
}

func TestBuild_EmptyReplyUsesFallback(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Send", mock.Anything, mock.Anything).Return("   ", nil)

	meta := &Metadata{
		Name:              "python",
		DescriptionPrompt: "Writes code",
		Steps:             []Step{{Stage: StageFeature, Name: "describe", Prompt: "Describe.", Fallback: "cannot help"}},
	}
	m, err := Build(meta, provider)
	require.NoError(t, err)

	out, err := m.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "cannot help", out)
}

func TestBuild_Validation(t *testing.T) {
	_, err := Build(&Metadata{Name: "m", DescriptionPrompt: "d"}, nil)
	assert.Error(t, err)

	_, err = Build(&Metadata{Name: "m"}, new(MockProvider))
	assert.Error(t, err)
}
