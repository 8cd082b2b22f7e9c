package confbind

import (
	"strings"
	"sync"
)

// Condition names used in diagnostic messages.
const (
	onClassCondition        = "OnClass"
	onMissingClassCondition = "OnMissingClass"
)

// MetadataKeyOnClass is the metadata key under which a component declares
// the comma-joined list of classes it requires.
const MetadataKeyOnClass = "ConditionalOnClass"

///////////////////////////////////////////////////////////////////////////////
// Collaborator interfaces
///////////////////////////////////////////////////////////////////////////////

// ComponentDescriptor identifies one candidate component. The descriptor
// itself is opaque to the evaluator; everything it needs comes from the
// metadata lookup.
type ComponentDescriptor struct {
	ID string
}

// MetadataLookup resolves condition metadata for a component. Get returns
// the raw metadata string for a key, "" when the component declares none,
// and an error when the metadata cannot be read at all.
type MetadataLookup interface {
	Get(componentID, key string) (string, error)
}

// PresenceOracle answers whether a class is present at runtime. Missing is
// the exact complement of Present.
type PresenceOracle interface {
	Present(className string) bool
	Missing(className string) bool
}

// MapOracle is a PresenceOracle backed by a set of present class names.
type MapOracle map[string]bool

func (o MapOracle) Present(className string) bool { return o[className] }
func (o MapOracle) Missing(className string) bool { return !o[className] }

///////////////////////////////////////////////////////////////////////////////
// ConditionEvaluator
///////////////////////////////////////////////////////////////////////////////

// ConditionEvaluator decides which candidate components activate, by
// probing the presence oracle for the classes each component requires.
//
// Evaluate is the fast filtering pass: it splits each batch into exactly
// two partitions, one evaluated on a spawned goroutine and one on the
// caller, and joins unconditionally before merging. Two partitions is a
// deliberate, measured policy: the probes contend on the class-loading
// path and more workers slow the batch down. No cancellation or timeout
// exists; a hung probe blocks the batch.
type ConditionEvaluator struct {
	oracle   PresenceOracle
	metadata MetadataLookup

	// spawn runs a task concurrently. A spawn error degrades the batch to
	// fully synchronous evaluation; it never fails the batch.
	spawn func(task func()) error
}

// NewConditionEvaluator creates an evaluator over the given collaborators.
func NewConditionEvaluator(oracle PresenceOracle, metadata MetadataLookup) *ConditionEvaluator {
	return &ConditionEvaluator{
		oracle:   oracle,
		metadata: metadata,
		spawn: func(task func()) error {
			go task()
			return nil
		},
	}
}

// Evaluate resolves one outcome per candidate, in input order. A nil entry
// means the candidate declares no class condition, or its metadata could
// not be read and the decision is deferred to a later authoritative pass,
// or its required classes are all present; the fast path is a filter, not
// the final arbiter, and only records definite no-matches.
func (e *ConditionEvaluator) Evaluate(candidates []ComponentDescriptor) []*ConditionOutcome {
	outcomes := make([]*ConditionOutcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes
	}

	// Split the work and perform half on a spawned goroutine. The halves
	// write to disjoint ranges of the pre-sized slice, so the join is the
	// only synchronization needed.
	split := len(candidates) / 2

	var wg sync.WaitGroup
	wg.Add(1)
	err := e.spawn(func() {
		defer wg.Done()
		e.resolveRange(candidates, 0, split, outcomes)
	})
	if err != nil {
		// the environment refused a worker: evaluate everything here
		wg.Done()
		e.resolveRange(candidates, 0, split, outcomes)
		e.resolveRange(candidates, split, len(candidates), outcomes)
		return outcomes
	}

	e.resolveRange(candidates, split, len(candidates), outcomes)
	wg.Wait()
	return outcomes
}

func (e *ConditionEvaluator) resolveRange(candidates []ComponentDescriptor, start, end int, outcomes []*ConditionOutcome) {
	for i := start; i < end; i++ {
		outcomes[i] = e.resolveOutcome(candidates[i])
	}
}

func (e *ConditionEvaluator) resolveOutcome(candidate ComponentDescriptor) *ConditionOutcome {
	required, err := e.metadata.Get(candidate.ID, MetadataKeyOnClass)
	if err != nil {
		// soft failure: we'll get another chance in the authoritative pass
		return nil
	}
	if required == "" {
		return nil
	}
	for _, className := range splitCommaList(required) {
		if e.oracle.Missing(className) {
			return NoMatch(ForCondition(onClassCondition).
				DidNotFind("required class", "required classes", className))
		}
	}
	return nil
}

// MatchOutcome is the authoritative evaluation for one target declaring
// both policies: every class in required must be present and every class
// in forbidden must be absent. The outcome message accumulates all
// found/not-found classes, quoted and comma-joined.
func (e *ConditionEvaluator) MatchOutcome(required, forbidden []string) *ConditionOutcome {
	message := ConditionMessage{}

	if len(required) > 0 {
		missing := e.filter(required, e.oracle.Missing)
		if len(missing) > 0 {
			return NoMatch(ForCondition(onClassCondition).
				DidNotFind("required class", "required classes", missing...))
		}
		message = message.AndCondition(onClassCondition).
			Found("required class", "required classes", e.filter(required, e.oracle.Present)...)
	}

	if len(forbidden) > 0 {
		present := e.filter(forbidden, e.oracle.Present)
		if len(present) > 0 {
			return NoMatch(ForCondition(onMissingClassCondition).
				Found("unwanted class", "unwanted classes", present...))
		}
		message = message.AndCondition(onMissingClassCondition).
			DidNotFind("unwanted class", "unwanted classes", e.filter(forbidden, e.oracle.Missing)...)
	}

	return Match(message)
}

func (e *ConditionEvaluator) filter(classNames []string, matches func(string) bool) []string {
	var out []string
	for _, className := range classNames {
		className = strings.TrimSpace(className)
		if className != "" && matches(className) {
			out = append(out, className)
		}
	}
	return out
}
