// Package intake implements the reconciliation engine for the Polymarket
// review queue: outcome-to-token resolution, approval payload construction,
// and the sequential bulk-approval runner.
package intake

import (
	"regexp"
	"strings"

	"github.com/marketdesk/admind/internal/domain"
)

// Resolution is the outcome of one outcome-to-token lookup. TokenID is empty
// when no safe match exists; callers must record the gap rather than fail.
type Resolution struct {
	TokenID string
	Method  domain.ResolutionMethod
}

// Resolved reports whether a token was found.
func (r Resolution) Resolved() bool {
	return r.TokenID != ""
}

// normalizeLabel trims and lowercases a free-text outcome label.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isBinaryOutcome reports whether a normalized label is a Yes/No outcome.
// Binary outcomes are high-stakes for directional correctness: approving a
// market with Yes and No transposed silently inverts its meaning.
func isBinaryOutcome(norm string) bool {
	return norm == "yes" || norm == "no"
}

// ResolveToken maps the outcome at index idx with the given display name to
// the token that trades it. Rules are ordered, first match wins:
//
//  1. exact match on the normalized token label (all market types)
//  2. binary outcomes only: case-insensitive full-string regex retry
//  3. binary outcomes never fall back to array position; the outcome and
//     token arrays are not guaranteed to align, and a positional guess can
//     swap Yes and No
//  4. non-binary outcomes fall back to the token at the same index
//  5. a market with exactly one token resolves every outcome to it
//
// Anything else is unresolved.
func ResolveToken(m domain.IntakeMarket, idx int, name string) Resolution {
	norm := normalizeLabel(name)
	binary := isBinaryOutcome(norm)

	// Exact label match is the preferred path for every outcome type. An
	// empty candidate name is never matched by label; empty token labels
	// would collide with it.
	if norm != "" {
		for _, t := range m.Tokens {
			if t.TokenID == "" {
				continue
			}
			if normalizeLabel(t.Outcome) == norm {
				return Resolution{TokenID: t.TokenID, Method: domain.ResolutionExact}
			}
		}

		if binary {
			if id, ok := regexRetry(name, m.Tokens); ok {
				return Resolution{TokenID: id, Method: domain.ResolutionRegex}
			}
		}
	}

	// Positional fallback is tolerable for non-binary outcomes: a mismatch
	// there is a labeling inconvenience, not a directional inversion.
	if !binary && idx >= 0 && idx < len(m.Tokens) && m.Tokens[idx].TokenID != "" {
		return Resolution{TokenID: m.Tokens[idx].TokenID, Method: domain.ResolutionPositional}
	}

	if len(m.Tokens) == 1 && m.Tokens[0].TokenID != "" {
		return Resolution{TokenID: m.Tokens[0].TokenID, Method: domain.ResolutionSingleToken}
	}

	return Resolution{Method: domain.ResolutionNone}
}

// regexRetry is the binary-only fallback: a case-insensitive full-string
// match of the candidate name against each token label. This guards against
// casing/trim edge cases a plain compare can miss. The name is untrusted
// free text, so it is escaped before being compiled into a pattern; a name
// containing regex metacharacters must only ever match itself literally.
func regexRetry(name string, tokens []domain.Token) (string, bool) {
	re, err := regexp.Compile(`(?i)^` + regexp.QuoteMeta(strings.TrimSpace(name)) + `$`)
	if err != nil {
		return "", false
	}
	for _, t := range tokens {
		if t.TokenID == "" {
			continue
		}
		if re.MatchString(strings.TrimSpace(t.Outcome)) {
			return t.TokenID, true
		}
	}
	return "", false
}
