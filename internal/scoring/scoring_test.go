package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"worldcup-predict/internal/scoring"
)

func truthFixture() scoring.GroupAssignment {
	return scoring.GroupAssignment{
		"A": {"iran", "england", "usa", "wales"},
		"B": {"argentina", "mexico", "poland", "saudi"},
	}
}

func TestScore_AllCorrect(t *testing.T) {
	truth := truthFixture()
	user := scoring.GroupAssignment{
		"A": {"wales", "usa", "england", "iran"}, // order within group is irrelevant
		"B": {"saudi", "poland", "mexico", "argentina"},
	}
	res := scoring.Score(scoring.DefaultConfig, user, truth)
	assert.Equal(t, scoring.RuleAllCorrect, res.Rule)
	assert.Equal(t, 100, res.Score)
	assert.ElementsMatch(t, []string{"A", "B"}, res.PerfectGroups)
	assert.Equal(t, 8, res.CorrectlyPlaced)
}

func TestScore_TwoMisplaced(t *testing.T) {
	truth := truthFixture()
	user := scoring.GroupAssignment{
		"A": {"iran", "england", "usa", "mexico"}, // mexico misplaced (belongs to B)
		"B": {"argentina", "wales", "poland", "saudi"}, // wales misplaced (belongs to A)
	}
	res := scoring.Score(scoring.DefaultConfig, user, truth)
	assert.Equal(t, scoring.RuleTwoMisplaced, res.Rule)
	assert.Equal(t, 80, res.Score)
	assert.ElementsMatch(t, []string{"mexico", "wales"}, res.Misplaced)
}

func TestScore_IranGroupCorrect(t *testing.T) {
	truth := scoring.GroupAssignment{
		"A": {"Iran", "england", "usa", "wales"},
		"B": {"argentina", "mexico", "poland", "saudi"},
	}
	user := scoring.GroupAssignment{
		"A": {"Iran", "england", "usa", "wales"}, // group A fully correct, including the designated entity
		"B": {"argentina", "mexico", "poland", "qatar"}, // qatar wrong (saudi expected) -> 1 misplaced here
	}
	// misplaced count here is 1 (qatar), which matches none of rules 1-3,
	// so falls through to IRAN_GROUP_CORRECT since group A (iran's group)
	// is itself a perfect match and also the designated entity's own rule.
	// Note PERFECT_GROUP would also apply to group A, but IRAN_GROUP_CORRECT
	// has higher priority.
	res := scoring.Score(scoring.DefaultConfig, user, truth)
	assert.Equal(t, scoring.RuleIranGroupCorrect, res.Rule)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, "A", res.Label)
}

func TestScore_PerfectGroupWithoutDesignatedEntity(t *testing.T) {
	truth := truthFixture()
	cfg := scoring.Config{DesignatedEntity: "brazil"} // absent entirely -> rule 4 disabled
	user := scoring.GroupAssignment{
		"A": {"iran", "england", "usa", "qatar"},       // 1 misplaced
		"B": {"argentina", "mexico", "poland", "saudi"}, // perfect
	}
	res := scoring.Score(cfg, user, truth)
	assert.Equal(t, scoring.RulePerfectGroup, res.Rule)
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, "B", res.Label)
}

func TestScore_ThreeCorrectInAGroup(t *testing.T) {
	truth := truthFixture()
	cfg := scoring.Config{DesignatedEntity: "brazil"}
	user := scoring.GroupAssignment{
		"A": {"iran", "england", "usa", "qatar"},    // 3 of 4 correct
		"B": {"argentina", "portugal", "qatar", "senegal"}, // 1 of 4 correct
	}
	res := scoring.Score(cfg, user, truth)
	assert.Equal(t, scoring.RuleThreeCorrect, res.Rule)
	assert.Equal(t, 20, res.Score)
	assert.Equal(t, "A", res.Label)
}

func TestScore_NoMatch(t *testing.T) {
	truth := truthFixture()
	cfg := scoring.Config{DesignatedEntity: "brazil"}
	user := scoring.GroupAssignment{
		"A": {"qatar", "portugal", "senegal", "morocco"},
		"B": {"brazil", "germany", "spain", "japan"},
	}
	res := scoring.Score(cfg, user, truth)
	assert.Equal(t, scoring.RuleNoMatch, res.Rule)
	assert.Equal(t, 0, res.Score)
}

func TestFlatten_WrapperArraysAndBareStrings(t *testing.T) {
	raw := map[string][]any{
		"A": {"iran", []any{"england"}, []any{[]any{"usa"}}, "wales"},
	}
	flat := scoring.Flatten(raw)
	assert.ElementsMatch(t, []string{"iran", "england", "usa", "wales"}, flat["A"])
}

func TestScore_IndependentOfGroupOrderingWithinSlice(t *testing.T) {
	truth := truthFixture()
	a := scoring.GroupAssignment{"A": {"iran", "england", "usa", "wales"}, "B": {"argentina", "mexico", "poland", "saudi"}}
	b := scoring.GroupAssignment{"A": {"wales", "usa", "england", "iran"}, "B": {"mexico", "saudi", "argentina", "poland"}}
	resA := scoring.Score(scoring.DefaultConfig, a, truth)
	resB := scoring.Score(scoring.DefaultConfig, b, truth)
	assert.Equal(t, resA.Rule, resB.Rule)
	assert.Equal(t, resA.Score, resB.Score)
}
