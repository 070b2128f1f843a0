// Package scoring is C9: a pure, deterministic rule evaluator comparing a
// submission's group assignments against the ground-truth partition.
// No I/O, no side effects — every function here is a value transform, the
// same purity contract the teacher enforces on
// internal/decision/rules.go's EvaluateDecision/BuildResult pair, generalized
// from a fail-fast compliance rule chain to a priority-ranked scoring table.
package scoring

import "sort"

// GroupAssignment is a mapping from group label to the set of entity ids
// assigned to it. Both Score's user and truth arguments use this shape; the
// caller is responsible for flattening any nested wrapper-arrays the wire
// payload tolerated before calling Score.
type GroupAssignment map[string][]string

// RuleID names which priority rule produced a Result.
type RuleID string

const (
	RuleAllCorrect        RuleID = "ALL_CORRECT"
	RuleTwoMisplaced      RuleID = "TWO_MISPLACED"
	RuleThreeMisplaced    RuleID = "THREE_MISPLACED"
	RuleIranGroupCorrect  RuleID = "IRAN_GROUP_CORRECT"
	RulePerfectGroup      RuleID = "PERFECT_GROUP"
	RuleThreeCorrect      RuleID = "THREE_CORRECT"
	RuleNoMatch           RuleID = "NO_MATCH"
)

// scoreByRule is the fixed priority-order point table (spec.md §4.6).
var scoreByRule = map[RuleID]int{
	RuleAllCorrect:       100,
	RuleTwoMisplaced:     80,
	RuleThreeMisplaced:   60,
	RuleIranGroupCorrect: 50,
	RulePerfectGroup:     40,
	RuleThreeCorrect:     20,
	RuleNoMatch:          0,
}

// Result is the outcome of scoring one submission.
type Result struct {
	Rule  RuleID
	Score int
	// PerfectGroups lists every label where user[g] == truth[g] as sets.
	// Populated for ALL_CORRECT and PERFECT_GROUP.
	PerfectGroups []string
	// CorrectlyPlaced counts entities sitting in the same group in both
	// user and truth. Populated for ALL_CORRECT.
	CorrectlyPlaced int
	// Misplaced lists every entity present in user but absent from its
	// truth group. Populated for TWO_MISPLACED/THREE_MISPLACED.
	Misplaced []string
	// Label and Teams identify the matching group for
	// IRAN_GROUP_CORRECT/PERFECT_GROUP/THREE_CORRECT.
	Label string
	Teams []string
}

// Config names the designated entity whose own-group correctness earns the
// IRAN_GROUP_CORRECT rule. Its absence from user simply disables the rule.
type Config struct {
	DesignatedEntity string
}

// DefaultConfig matches spec.md §4.6's stated default.
var DefaultConfig = Config{DesignatedEntity: "Iran"}

// Score evaluates the seven-rule priority table over user vs truth and
// returns the first matching rule. Deterministic and independent of slice
// ordering within any group.
func Score(cfg Config, user, truth GroupAssignment) Result {
	misplaced := misplacedEntities(user, truth)

	if len(misplaced) == 0 {
		return Result{
			Rule:            RuleAllCorrect,
			Score:           scoreByRule[RuleAllCorrect],
			PerfectGroups:   perfectGroupLabels(user, truth),
			CorrectlyPlaced: countEntities(user),
		}
	}
	if len(misplaced) == 2 {
		return Result{Rule: RuleTwoMisplaced, Score: scoreByRule[RuleTwoMisplaced], Misplaced: misplaced}
	}
	if len(misplaced) == 3 {
		return Result{Rule: RuleThreeMisplaced, Score: scoreByRule[RuleThreeMisplaced], Misplaced: misplaced}
	}

	if label, teams, ok := designatedEntityGroupCorrect(cfg.DesignatedEntity, user, truth); ok {
		return Result{Rule: RuleIranGroupCorrect, Score: scoreByRule[RuleIranGroupCorrect], Label: label, Teams: teams}
	}

	if labels := perfectGroupLabels(user, truth); len(labels) > 0 {
		return Result{Rule: RulePerfectGroup, Score: scoreByRule[RulePerfectGroup], Label: labels[0], Teams: user[labels[0]], PerfectGroups: labels}
	}

	if label, teams, ok := threeCorrectGroup(user, truth); ok {
		return Result{Rule: RuleThreeCorrect, Score: scoreByRule[RuleThreeCorrect], Label: label, Teams: teams}
	}

	return Result{Rule: RuleNoMatch, Score: scoreByRule[RuleNoMatch]}
}

// misplacedEntities sums, across every group label present in user, the set
// difference user[g] \ truth[g], returning the full sorted list of
// misplaced entity ids (its length is the "misplaced" count).
func misplacedEntities(user, truth GroupAssignment) []string {
	var out []string
	for label, entities := range user {
		truthSet := toSet(truth[label])
		for _, e := range entities {
			if !truthSet[e] {
				out = append(out, e)
			}
		}
	}
	sort.Strings(out)
	return out
}

// perfectGroupLabels returns every label where user[g] equals truth[g] as
// sets, sorted for determinism.
func perfectGroupLabels(user, truth GroupAssignment) []string {
	var labels []string
	for label, entities := range user {
		if setsEqual(toSet(entities), toSet(truth[label])) {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// designatedEntityGroupCorrect reports whether name appears somewhere in
// user, and whether the label it's filed under in user matches the label
// it's filed under in truth, with that group's sets equal.
func designatedEntityGroupCorrect(name string, user, truth GroupAssignment) (label string, teams []string, ok bool) {
	if name == "" {
		return "", nil, false
	}
	userLabel, found := labelContaining(user, name)
	if !found {
		return "", nil, false
	}
	truthLabel, found := labelContaining(truth, name)
	if !found || userLabel != truthLabel {
		return "", nil, false
	}
	if !setsEqual(toSet(user[userLabel]), toSet(truth[userLabel])) {
		return "", nil, false
	}
	return userLabel, user[userLabel], true
}

// threeCorrectGroup returns the first label (sorted) where the intersection
// of user[g] and truth[g] has exactly three members.
func threeCorrectGroup(user, truth GroupAssignment) (label string, teams []string, ok bool) {
	var labels []string
	for l := range user {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		if intersectionSize(toSet(user[l]), toSet(truth[l])) == 3 {
			return l, user[l], true
		}
	}
	return "", nil, false
}

func labelContaining(groups GroupAssignment, entity string) (string, bool) {
	var labels []string
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		for _, e := range groups[l] {
			if e == entity {
				return l, true
			}
		}
	}
	return "", false
}

func countEntities(groups GroupAssignment) int {
	n := 0
	for _, entities := range groups {
		n += len(entities)
	}
	return n
}

func toSet(entities []string) map[string]bool {
	set := make(map[string]bool, len(entities))
	for _, e := range entities {
		set[e] = true
	}
	return set
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func intersectionSize(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}

// Flatten normalizes a wire payload that may represent each entity either
// as a bare id or as a single-element wrapper array, per spec.md §3's
// "nested wrapper-array per entity is tolerated on input" clause.
func Flatten(raw map[string][]any) GroupAssignment {
	out := make(GroupAssignment, len(raw))
	for label, items := range raw {
		flat := make([]string, 0, len(items))
		for _, item := range items {
			flat = append(flat, flattenEntity(item)...)
		}
		out[label] = flat
	}
	return out
}

func flattenEntity(item any) []string {
	switch v := item.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, nested := range v {
			out = append(out, flattenEntity(nested)...)
		}
		return out
	default:
		return nil
	}
}
