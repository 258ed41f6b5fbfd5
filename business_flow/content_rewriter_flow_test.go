package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/arazmand/jarchi/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rewriterBaseURL = "https://t.jarchi.ir"

func newRewriterUnderTest() (*fakeShortLinkFlow, ContentRewriterFlow) {
	fake := &fakeShortLinkFlow{}
	return fake, NewContentRewriterFlow(fake, rewriterBaseURL)
}

func TestRewriteContent(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		expectedContent string
		expectedMints   int
	}{
		{
			name:            "no URLs leaves content untouched",
			content:         "Plain announcement without any links",
			expectedContent: "Plain announcement without any links",
			expectedMints:   0,
		},
		{
			name:            "single URL is replaced",
			content:         "Visit https://example.com/sale today",
			expectedContent: "Visit https://t.jarchi.ir/t/code1 today",
			expectedMints:   1,
		},
		{
			name:            "trailing punctuation stays outside the link",
			content:         "Details at https://example.com/sale.",
			expectedContent: "Details at https://t.jarchi.ir/t/code1.",
			expectedMints:   1,
		},
		{
			name:            "stacked trailing punctuation",
			content:         "Really, https://example.com/sale?!",
			expectedContent: "Really, https://t.jarchi.ir/t/code1?!",
			expectedMints:   1,
		},
		{
			name:            "same URL twice mints one link",
			content:         "https://example.com/sale and again https://example.com/sale",
			expectedContent: "https://t.jarchi.ir/t/code1 and again https://t.jarchi.ir/t/code1",
			expectedMints:   1,
		},
		{
			name:            "distinct URLs mint distinct links",
			content:         "https://example.com/a plus https://example.com/b",
			expectedContent: "https://t.jarchi.ir/t/code1 plus https://t.jarchi.ir/t/code2",
			expectedMints:   2,
		},
		{
			name:            "URL with query string",
			content:         "Go to https://example.com/sale?ref=tg&x=1 now",
			expectedContent: "Go to https://t.jarchi.ir/t/code1 now",
			expectedMints:   1,
		},
		{
			name:            "own short links are not rewritten again",
			content:         "Already short: https://t.jarchi.ir/t/abc123",
			expectedContent: "Already short: https://t.jarchi.ir/t/abc123",
			expectedMints:   0,
		},
		{
			name:            "URL in parentheses keeps the closing paren",
			content:         "See the page (https://example.com/sale) for more",
			expectedContent: "See the page (https://t.jarchi.ir/t/code1) for more",
			expectedMints:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, rewriter := newRewriterUnderTest()
			announcement := &models.Announcement{
				ID:      1,
				UUID:    uuid.New(),
				Content: tt.content,
			}

			content, buttons, err := rewriter.Rewrite(context.Background(), announcement)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedContent, content)
			assert.Empty(t, buttons)
			assert.Len(t, fake.minted, tt.expectedMints)
			for _, m := range fake.minted {
				assert.Equal(t, models.TrackedLinkKindContent, m.kind)
			}
		})
	}
}

func TestRewriteButtons(t *testing.T) {
	fake, rewriter := newRewriterUnderTest()
	announcement := &models.Announcement{
		ID:   1,
		UUID: uuid.New(),
		Buttons: models.AnnouncementButtons{
			{Text: "Shop", URL: "https://example.com/shop"},
			{Text: "Shop again", URL: "https://example.com/shop"},
			{Text: "Docs", URL: "https://example.com/docs"},
			{Text: "Empty", URL: "   "},
			{Text: "   ", URL: "https://example.com/blank-label"},
			{Text: "Short", URL: "https://t.jarchi.ir/t/xyz789"},
		},
	}

	_, buttons, err := rewriter.Rewrite(context.Background(), announcement)
	require.NoError(t, err)

	// Buttons missing a URL or a label are dropped, the rest keep their order
	require.Len(t, buttons, 4)
	assert.Equal(t, "Shop", buttons[0].Text)
	assert.Equal(t, "https://t.jarchi.ir/t/code1", buttons[0].URL)
	assert.Equal(t, "https://t.jarchi.ir/t/code1", buttons[1].URL) // deduped with the first
	assert.Equal(t, "https://t.jarchi.ir/t/code2", buttons[2].URL)
	assert.Equal(t, "https://t.jarchi.ir/t/xyz789", buttons[3].URL) // already ours

	require.Len(t, fake.minted, 2)
	for _, m := range fake.minted {
		assert.Equal(t, models.TrackedLinkKindButton, m.kind)
		// No link is wasted on a button that will never render
		assert.NotEqual(t, "https://example.com/blank-label", m.originalURL)
	}
}

func TestRewriteBodyAndButtonsMintSeparately(t *testing.T) {
	fake, rewriter := newRewriterUnderTest()
	announcement := &models.Announcement{
		ID:      1,
		UUID:    uuid.New(),
		Content: "Visit https://example.com/sale",
		Buttons: models.AnnouncementButtons{
			{Text: "Open", URL: "https://example.com/sale"},
		},
	}

	content, buttons, err := rewriter.Rewrite(context.Background(), announcement)
	require.NoError(t, err)

	// Same destination, but body and button clicks are analyzed separately
	assert.Equal(t, "Visit https://t.jarchi.ir/t/code1", content)
	require.Len(t, buttons, 1)
	assert.Equal(t, "https://t.jarchi.ir/t/code2", buttons[0].URL)

	require.Len(t, fake.minted, 2)
	assert.Equal(t, models.TrackedLinkKindContent, fake.minted[0].kind)
	assert.Equal(t, models.TrackedLinkKindButton, fake.minted[1].kind)
}

func TestRewriteMintFailure(t *testing.T) {
	fake, rewriter := newRewriterUnderTest()
	fake.mintErr = errors.New("database unavailable")

	announcement := &models.Announcement{
		ID:      1,
		UUID:    uuid.New(),
		Content: "Visit https://example.com/sale",
	}

	content, buttons, err := rewriter.Rewrite(context.Background(), announcement)

	assert.Error(t, err)
	assert.Empty(t, content)
	assert.Nil(t, buttons)
}
