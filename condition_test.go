package confbind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapMetadata serves condition metadata from a map keyed by component ID.
type mapMetadata map[string]string

func (m mapMetadata) Get(componentID, key string) (string, error) {
	if key != MetadataKeyOnClass {
		return "", nil
	}
	return m[componentID], nil
}

// failingMetadata fails every lookup.
type failingMetadata struct{}

func (failingMetadata) Get(string, string) (string, error) {
	return "", errors.New("metadata store unavailable")
}

func descriptors(ids ...string) []ComponentDescriptor {
	out := make([]ComponentDescriptor, len(ids))
	for i, id := range ids {
		out[i] = ComponentDescriptor{ID: id}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	oracle := MapOracle{
		"com.example.Redis":     true,
		"com.example.DataSrc":   true,
		"com.example.Validator": false,
	}

	t.Run("OutcomesInInputOrder", func(t *testing.T) {
		metadata := mapMetadata{
			"redis":   "com.example.Redis",
			"missing": "com.example.Validator",
			"plain":   "",
			"both":    "com.example.Redis,com.example.DataSrc",
		}
		e := NewConditionEvaluator(oracle, metadata)

		outcomes := e.Evaluate(descriptors("redis", "missing", "plain", "both"))
		require.Len(t, outcomes, 4)

		assert.Nil(t, outcomes[0], "all classes present resolves to nil")
		require.NotNil(t, outcomes[1])
		assert.False(t, outcomes[1].Matched)
		assert.Nil(t, outcomes[2], "no declared condition resolves to nil")
		assert.Nil(t, outcomes[3])
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		e := NewConditionEvaluator(oracle, mapMetadata{})
		assert.Empty(t, e.Evaluate(nil))
	})

	t.Run("SingleCandidate", func(t *testing.T) {
		e := NewConditionEvaluator(oracle, mapMetadata{"v": "com.example.Validator"})
		outcomes := e.Evaluate(descriptors("v"))
		require.Len(t, outcomes, 1)
		require.NotNil(t, outcomes[0])
		assert.False(t, outcomes[0].Matched)
		assert.Contains(t, outcomes[0].Message, "'com.example.Validator'")
	})

	t.Run("FirstMissingClassReported", func(t *testing.T) {
		// evaluation stops at the first missing class of a candidate
		e := NewConditionEvaluator(MapOracle{}, mapMetadata{
			"c": "com.example.First,com.example.Second",
		})
		outcomes := e.Evaluate(descriptors("c"))
		require.NotNil(t, outcomes[0])
		assert.Contains(t, outcomes[0].Message, "'com.example.First'")
		assert.NotContains(t, outcomes[0].Message, "'com.example.Second'")
	})

	t.Run("MetadataFailureDefers", func(t *testing.T) {
		e := NewConditionEvaluator(oracle, failingMetadata{})
		outcomes := e.Evaluate(descriptors("a", "b", "c"))
		for i, outcome := range outcomes {
			assert.Nil(t, outcome, "candidate %d", i)
		}
	})

	t.Run("SpawnFailureFallsBackSynchronously", func(t *testing.T) {
		metadata := make(mapMetadata)
		ids := make([]string, 9)
		for i := range ids {
			ids[i] = fmt.Sprintf("component-%d", i)
			metadata[ids[i]] = fmt.Sprintf("com.example.Class%d", i)
		}
		present := MapOracle{"com.example.Class3": true, "com.example.Class7": true}

		concurrent := NewConditionEvaluator(present, metadata)
		degraded := NewConditionEvaluator(present, metadata)
		degraded.spawn = func(func()) error {
			return errors.New("thread limit reached")
		}

		want := concurrent.Evaluate(descriptors(ids...))
		got := degraded.Evaluate(descriptors(ids...))

		require.Len(t, got, len(want))
		for i := range want {
			if want[i] == nil {
				assert.Nil(t, got[i], "candidate %d", i)
				continue
			}
			require.NotNil(t, got[i], "candidate %d", i)
			assert.Equal(t, want[i].Matched, got[i].Matched)
			assert.Equal(t, want[i].Message, got[i].Message)
		}
	})
}

func TestMatchOutcome(t *testing.T) {
	oracle := MapOracle{
		"com.example.Redis":   true,
		"com.example.DataSrc": true,
	}
	e := NewConditionEvaluator(oracle, mapMetadata{})

	t.Run("AllRequiredPresent", func(t *testing.T) {
		outcome := e.MatchOutcome([]string{"com.example.Redis", "com.example.DataSrc"}, nil)
		require.NotNil(t, outcome)
		assert.True(t, outcome.Matched)
		assert.Equal(t,
			"@OnClass found required classes 'com.example.Redis', 'com.example.DataSrc'",
			outcome.Message)
	})

	t.Run("RequiredMissing", func(t *testing.T) {
		outcome := e.MatchOutcome([]string{"com.example.Redis", "com.example.Gone"}, nil)
		assert.False(t, outcome.Matched)
		assert.Equal(t, "@OnClass did not find required class 'com.example.Gone'", outcome.Message)
	})

	t.Run("ForbiddenAbsent", func(t *testing.T) {
		outcome := e.MatchOutcome(nil, []string{"com.example.Legacy"})
		assert.True(t, outcome.Matched)
		assert.Equal(t,
			"@OnMissingClass did not find unwanted class 'com.example.Legacy'",
			outcome.Message)
	})

	t.Run("ForbiddenPresent", func(t *testing.T) {
		outcome := e.MatchOutcome(nil, []string{"com.example.Redis"})
		assert.False(t, outcome.Matched)
		assert.Equal(t, "@OnMissingClass found unwanted class 'com.example.Redis'", outcome.Message)
	})

	t.Run("BothPolicies", func(t *testing.T) {
		outcome := e.MatchOutcome([]string{"com.example.Redis"}, []string{"com.example.Legacy"})
		require.True(t, outcome.Matched)
		assert.Equal(t,
			"@OnClass found required class 'com.example.Redis'; "+
				"@OnMissingClass did not find unwanted class 'com.example.Legacy'",
			outcome.Message)
	})

	t.Run("RequiredCheckedBeforeForbidden", func(t *testing.T) {
		outcome := e.MatchOutcome([]string{"com.example.Gone"}, []string{"com.example.Redis"})
		assert.False(t, outcome.Matched)
		assert.Contains(t, outcome.Message, "@OnClass")
		assert.NotContains(t, outcome.Message, "@OnMissingClass")
	})

	t.Run("WhitespaceTrimmed", func(t *testing.T) {
		outcome := e.MatchOutcome([]string{" com.example.Redis ", ""}, nil)
		assert.True(t, outcome.Matched)
		assert.Equal(t, "@OnClass found required class 'com.example.Redis'", outcome.Message)
	})

	t.Run("NoPolicies", func(t *testing.T) {
		outcome := e.MatchOutcome(nil, nil)
		assert.True(t, outcome.Matched)
		assert.Equal(t, "", outcome.Message)
	})
}
