package main

import (
	"regexp"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// unknownCommandPattern extracts the offending token from cobra's own
// "unknown command %q for %q" error text so we can re-suggest it with
// fuzzy matching instead of cobra's built-in Levenshtein suggestions,
// mirroring runtime/planner's findClosestMatch for decorator-name typos.
var unknownCommandPattern = regexp.MustCompile(`^unknown command "([^"]+)" for`)

// findClosestMatch returns the best fuzzy match for target among
// candidates, or "" if candidates is empty or nothing ranks.
func findClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	return ranks[0].Target
}

// suggestionFor inspects a cobra "unknown command" error and returns a
// human-readable suggestion, or "" if err doesn't look like that shape.
func suggestionFor(errText string, candidates []string) string {
	m := unknownCommandPattern.FindStringSubmatch(errText)
	if m == nil {
		return ""
	}
	return findClosestMatch(m[1], candidates)
}
