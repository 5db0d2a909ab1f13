package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
)

// DefaultClassificationBackoff is the pause after each classification call so
// that a full buffer does not issue two requests back to back.
const DefaultClassificationBackoff = time.Second

// ZeroShotPolicy asks the generation service itself which turns are least
// needed. The question is a plain prompt listing every turn with a 1-based
// number; the reply is read as free text and every number in it is taken as
// a turn to discard.
type ZeroShotPolicy struct {
	provider llm.Provider
	catalog  *i18n.Catalog
	backoff  time.Duration

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// ZeroShotOption configures a ZeroShotPolicy.
type ZeroShotOption func(*ZeroShotPolicy)

// WithBackoff sets the pause taken after each classification call. Zero
// disables it.
func WithBackoff(d time.Duration) ZeroShotOption {
	return func(p *ZeroShotPolicy) {
		if d < 0 {
			d = 0
		}
		p.backoff = d
	}
}

// NewZeroShotPolicy creates a relevance policy that classifies through
// provider using the discard prompts of catalog.
func NewZeroShotPolicy(provider llm.Provider, catalog *i18n.Catalog, opts ...ZeroShotOption) (*ZeroShotPolicy, error) {
	if provider == nil {
		return nil, &ConfigError{Field: "provider", Reason: "is required for zero-shot eviction"}
	}
	if catalog == nil {
		return nil, &ConfigError{Field: "catalog", Reason: "is required for zero-shot eviction"}
	}
	if err := catalog.Require(i18n.KeyDiscardHeader, i18n.KeyDiscardFooter); err != nil {
		return nil, &ConfigError{Field: "catalog", Reason: err.Error()}
	}

	p := &ZeroShotPolicy{
		provider: provider,
		catalog:  catalog,
		backoff:  DefaultClassificationBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the policy name
func (p *ZeroShotPolicy) Name() string {
	return "ZeroShotRelevance"
}

// SelectIndicesToEvict sends the classification prompt and returns the
// positions named in the reply. A reply without numbers yields an empty
// selection, not an error; only a failed request is an error.
func (p *ZeroShotPolicy) SelectIndicesToEvict(ctx context.Context, turns []string, count int) ([]int, error) {
	prompt := p.BuildPrompt(turns, count)

	reply, err := p.provider.Send(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("zero-shot classification request failed: %w", err)
	}

	if p.backoff > 0 {
		p.sleep(ctx, p.backoff)
	}

	indices := ParseTurnNumbers(reply)
	debugLog.Debugf("zero-shot reply %q -> positions %v (asked for %d)", truncate(reply, 80), indices, count)
	return indices, nil
}

// BuildPrompt renders the classification question: the localized header, one
// numbered line per turn and the localized footer.
func (p *ZeroShotPolicy) BuildPrompt(turns []string, count int) string {
	vars := map[string]string{"count": strconv.Itoa(count)}

	var b strings.Builder
	b.WriteString(p.catalog.Format(i18n.KeyDiscardHeader, vars))
	b.WriteString("\n\n")
	for i, turn := range turns {
		fmt.Fprintf(&b, "%d. %s\n", i+1, turn)
	}
	b.WriteString("\n")
	b.WriteString(p.catalog.Format(i18n.KeyDiscardFooter, vars))

	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
