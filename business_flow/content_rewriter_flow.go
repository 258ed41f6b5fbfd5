package businessflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
)

// urlPattern matches http(s) URLs in free text. The character class stops at
// whitespace, quotes, and closing brackets so URLs inside HTML attributes or
// parenthesized text keep their surroundings intact.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"'` + "`" + `)\]}]+`)

// ContentRewriterFlow replaces destination URLs in an announcement with
// tracked short links before dispatch
type ContentRewriterFlow interface {
	Rewrite(ctx context.Context, announcement *models.Announcement) (content string, buttons []services.InlineButton, err error)
}

// ContentRewriterFlowImpl implements the content rewriter business flow
type ContentRewriterFlowImpl struct {
	shortLinkFlow ShortLinkFlow
	baseURL       string
}

// NewContentRewriterFlow creates a new content rewriter flow instance.
// baseURL is the public origin serving redirects, e.g. https://links.example.com
func NewContentRewriterFlow(shortLinkFlow ShortLinkFlow, baseURL string) ContentRewriterFlow {
	return &ContentRewriterFlowImpl{
		shortLinkFlow: shortLinkFlow,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// Rewrite mints tracked links for every URL in the announcement body and its
// inline buttons and returns the body with URLs swapped for short links.
// The same destination URL appearing multiple times in the body gets one
// tracked link; body and button links are minted separately because their
// kinds differ in analytics.
func (f *ContentRewriterFlowImpl) Rewrite(ctx context.Context, announcement *models.Announcement) (string, []services.InlineButton, error) {
	minted := make(map[string]string) // original URL -> short URL, body links only

	var rewriteErr error
	content := urlPattern.ReplaceAllStringFunc(announcement.Content, func(original string) string {
		if rewriteErr != nil {
			return original
		}
		// Trailing sentence punctuation is not part of the URL
		original, trailing := splitTrailingPunct(original)
		if f.isOwnURL(original) {
			return original + trailing
		}
		short, ok := minted[original]
		if !ok {
			link, err := f.shortLinkFlow.Mint(ctx, announcement, original, models.TrackedLinkKindContent)
			if err != nil {
				rewriteErr = err
				return original + trailing
			}
			short = f.shortURL(link.Code)
			minted[original] = short
		}
		return short + trailing
	})
	if rewriteErr != nil {
		return "", nil, rewriteErr
	}

	buttons := make([]services.InlineButton, 0, len(announcement.Buttons))
	buttonMinted := make(map[string]string)
	for _, b := range announcement.Buttons {
		// Blank buttons are not renderable; Telegram rejects keyboards
		// containing them
		label := strings.TrimSpace(b.Text)
		target := strings.TrimSpace(b.URL)
		if label == "" || target == "" {
			continue
		}
		short := target
		if !f.isOwnURL(target) {
			var ok bool
			short, ok = buttonMinted[target]
			if !ok {
				link, err := f.shortLinkFlow.Mint(ctx, announcement, target, models.TrackedLinkKindButton)
				if err != nil {
					return "", nil, err
				}
				short = f.shortURL(link.Code)
				buttonMinted[target] = short
			}
		}
		buttons = append(buttons, services.InlineButton{Text: label, URL: short})
	}

	return content, buttons, nil
}

func (f *ContentRewriterFlowImpl) shortURL(code string) string {
	return fmt.Sprintf("%s/t/%s", f.baseURL, code)
}

// isOwnURL reports whether a URL already points at our redirect origin;
// rewriting those would chain redirects
func (f *ContentRewriterFlowImpl) isOwnURL(rawURL string) bool {
	return f.baseURL != "" && strings.HasPrefix(rawURL, f.baseURL)
}

// splitTrailingPunct peels sentence punctuation off the end of a matched URL
func splitTrailingPunct(raw string) (urlPart, trailing string) {
	urlPart = raw
	for len(urlPart) > 0 {
		last := urlPart[len(urlPart)-1]
		if last == '.' || last == ',' || last == ';' || last == ':' || last == '!' || last == '?' {
			trailing = string(last) + trailing
			urlPart = urlPart[:len(urlPart)-1]
			continue
		}
		break
	}
	return urlPart, trailing
}
