package confbind

import (
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// ConditionOutcome
///////////////////////////////////////////////////////////////////////////////

// ConditionOutcome is the result of evaluating one condition: whether it
// matched, and a diagnostic message naming the classes involved. Immutable
// value; outcomes live only as long as their evaluation batch.
type ConditionOutcome struct {
	Matched bool
	Message string
}

// Match builds a matching outcome.
func Match(message ConditionMessage) *ConditionOutcome {
	return &ConditionOutcome{Matched: true, Message: message.String()}
}

// NoMatch builds a non-matching outcome.
func NoMatch(message ConditionMessage) *ConditionOutcome {
	return &ConditionOutcome{Matched: false, Message: message.String()}
}

///////////////////////////////////////////////////////////////////////////////
// ConditionMessage
///////////////////////////////////////////////////////////////////////////////

// ConditionMessage accumulates a readable diagnostic for one condition
// evaluation. Each method returns a new message; items are quoted and
// comma-joined.
type ConditionMessage struct {
	text string
}

// ForCondition starts a message attributed to the named condition.
func ForCondition(condition string) ConditionMessage {
	return ConditionMessage{text: "@" + condition + " "}
}

// AndCondition appends a further condition clause to an existing message.
func (m ConditionMessage) AndCondition(condition string) ConditionMessage {
	if m.text == "" {
		return ForCondition(condition)
	}
	return ConditionMessage{text: m.text + "; @" + condition + " "}
}

// DidNotFind appends a "did not find <what>" clause listing the items.
func (m ConditionMessage) DidNotFind(singular, plural string, items ...string) ConditionMessage {
	return m.clause("did not find", singular, plural, items)
}

// Found appends a "found <what>" clause listing the items.
func (m ConditionMessage) Found(singular, plural string, items ...string) ConditionMessage {
	return m.clause("found", singular, plural, items)
}

func (m ConditionMessage) clause(verb, singular, plural string, items []string) ConditionMessage {
	if len(items) == 0 {
		return m
	}
	what := singular
	if len(items) > 1 {
		what = plural
	}
	return ConditionMessage{text: m.text + verb + " " + what + " " + quoteJoin(items)}
}

func (m ConditionMessage) String() string {
	return strings.TrimSpace(m.text)
}

// quoteJoin renders items as 'a', 'b', 'c'.
func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return strings.Join(quoted, ", ")
}
