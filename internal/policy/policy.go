// Package policy decides whether a platform order may move from one status
// to another. Rules are govaluate expressions; a matching rule denies.
package policy

import (
	"fmt"
	"sort"

	"github.com/Knetic/govaluate"
)

// TransitionRule denies a status change when Expression evaluates to true.
// Available parameters: current, target, transaction_id, has_transaction.
// Lower Priority values are evaluated first.
type TransitionRule struct {
	ID         string
	Expression string
	Priority   int
}

// Decision is the outcome of an evaluation. DeniedBy is empty when allowed.
type Decision struct {
	Allowed  bool
	DeniedBy string
}

type compiledRule struct {
	rule TransitionRule
	expr *govaluate.EvaluableExpression
}

// StatusPolicy evaluates compiled transition rules.
type StatusPolicy struct {
	rules []compiledRule
}

// DefaultRules returns the transitions every order honours.
func DefaultRules() []TransitionRule {
	return []TransitionRule{
		{ID: "unchanged_status", Expression: "current == target", Priority: 1},
		{ID: "refunded_is_final", Expression: "current == 'refunded'", Priority: 2},
		{ID: "cancelled_is_final", Expression: "current == 'cancelled'", Priority: 2},
		{ID: "captured_only_refundable", Expression: "current == 'captured' && target != 'refunded'", Priority: 3},
		{ID: "settlement_needs_transaction", Expression: "(target == 'captured' || target == 'refunded') && !has_transaction", Priority: 4},
	}
}

// NewStatusPolicy compiles rules. A nil or empty slice allows every transition.
func NewStatusPolicy(rules []TransitionRule) (*StatusPolicy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Expression == "" {
			return nil, fmt.Errorf("policy rule ID '%s' has an empty expression", r.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: r, expr: expr})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority < compiled[j].rule.Priority
	})
	return &StatusPolicy{rules: compiled}, nil
}

// Evaluate runs the rules in priority order and stops at the first match.
func (p *StatusPolicy) Evaluate(current, target, transactionID string) (Decision, error) {
	params := map[string]interface{}{
		"current":         current,
		"target":          target,
		"transaction_id":  transactionID,
		"has_transaction": transactionID != "",
	}

	for _, cr := range p.rules {
		result, err := cr.expr.Evaluate(params)
		if err != nil {
			return Decision{}, fmt.Errorf("error evaluating rule ID '%s': %w", cr.rule.ID, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return Decision{}, fmt.Errorf("rule ID '%s' did not evaluate to a boolean (got %T)", cr.rule.ID, result)
		}
		if matched {
			return Decision{Allowed: false, DeniedBy: cr.rule.ID}, nil
		}
	}
	return Decision{Allowed: true}, nil
}

// Allowed reports whether the transition passes every rule.
func (p *StatusPolicy) Allowed(current, target, transactionID string) (bool, error) {
	d, err := p.Evaluate(current, target, transactionID)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}
