// Package kb is the status knowledge base: a fixed mapping from upstream
// status codes to display classifications. Lookup is total; unknown codes
// degrade to a neutral fallback instead of failing, because upstream codes
// are neither versioned nor guaranteed stable.
package kb

import (
	"sort"

	"statusdeck/internal/domain"
)

// Entry is one knowledge-base row. Actionability is derived from sentiment,
// never stored.
type Entry struct {
	Title       string
	Description string
	Sentiment   domain.Sentiment
}

// Catalog maps status codes to entries. The zero value classifies everything
// as unknown.
type Catalog struct {
	entries map[string]Entry
}

var builtin = map[string]Entry{
	"APPROVED": {
		Title:       "Approved",
		Description: "The application has been approved. Account details should follow shortly.",
		Sentiment:   domain.SentimentSuccess,
	},
	"COMPLETE": {
		Title:       "Complete",
		Description: "Processing has finished and the account has been set up.",
		Sentiment:   domain.SentimentSuccess,
	},
	"DECLINED": {
		Title:       "Declined",
		Description: "The application was declined. A written notice with the decision reasons is typically mailed.",
		Sentiment:   domain.SentimentError,
	},
	"PEND_CALL_SUPPORT": {
		Title:       "Pending - Call Support",
		Description: "A decision could not be made automatically. Calling the application support line is usually required to proceed.",
		Sentiment:   domain.SentimentWarning,
	},
	"PEND_VOICE_VERIFICATION": {
		Title:       "Pending - Voice Verification",
		Description: "Identity must be confirmed over the phone before processing continues.",
		Sentiment:   domain.SentimentWarning,
	},
	"PEND_REVIEW": {
		Title:       "Pending - Under Review",
		Description: "The application is in manual review. No action is needed unless documents are requested.",
		Sentiment:   domain.SentimentNeutral,
	},
	"CONCURRENCY_REVIEW": {
		Title:       "Concurrency Review",
		Description: "Another in-flight application was detected and both are being reviewed together.",
		Sentiment:   domain.SentimentNeutral,
	},
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{entries: builtin}
}

// WithOverrides returns a catalog with extra or replacement entries layered
// over the built-ins. The built-in table is never mutated.
func WithOverrides(overrides map[string]Entry) Catalog {
	if len(overrides) == 0 {
		return Default()
	}
	merged := make(map[string]Entry, len(builtin)+len(overrides))
	for code, e := range builtin {
		merged[code] = e
	}
	for code, e := range overrides {
		merged[code] = e
	}
	return Catalog{entries: merged}
}

// Classify maps a status code to its display classification. It is total:
// any string, including the empty string, yields a classification with a
// non-empty title and description and a sentiment from the fixed set.
func (c Catalog) Classify(code string) domain.Classification {
	if e, ok := c.entries[code]; ok {
		return domain.Classification{
			Code:        code,
			Title:       e.Title,
			Description: e.Description,
			Sentiment:   e.Sentiment,
			Actionable:  actionable(e.Sentiment),
		}
	}
	title := code
	if title == "" {
		title = "No Status Code"
	}
	return domain.Classification{
		Code:        code,
		Title:       title,
		Description: "Unknown status code. The application is in a state this tool does not recognize; check the raw response for details.",
		Sentiment:   domain.SentimentNeutral,
		Actionable:  false,
	}
}

// Codes returns the known status codes in stable (sorted) order.
func (c Catalog) Codes() []string {
	out := make([]string, 0, len(c.entries))
	for code := range c.entries {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Classify runs a lookup against the built-in catalog.
func Classify(code string) domain.Classification {
	return Default().Classify(code)
}

// actionable: a status demands user attention iff it is warning or error.
// This single flag gates the reconsideration-contact panel.
func actionable(s domain.Sentiment) bool {
	return s == domain.SentimentWarning || s == domain.SentimentError
}
