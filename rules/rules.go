// Package rules implements the RulesEngine named in spec §4.3: a composable,
// non-short-circuiting predicate pipeline evaluating a premint against
// store and chain context. Modeled on the original's
// `rules::RulesEngine`/`Rule` trait (original_source/src/rules/mod.rs) and,
// for the engine's ordered-list-of-named-checks shape, on the teacher's
// consensus engine registration idiom.
package rules

import (
	"context"
	"fmt"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/store"
)

// Outcome is a single rule's verdict. The zero value is a rejection with an
// empty reason; use Accept() for an accepting verdict.
type Outcome struct {
	Accept bool
	Reason string
}

func Accept() Outcome { return Outcome{Accept: true} }

func Reject(reason string, args ...any) Outcome {
	return Outcome{Accept: false, Reason: fmt.Sprintf(reason, args...)}
}

// Result pairs a rule's name with its Outcome, so a caller can see exactly
// which rule(s) rejected.
type Result struct {
	Rule    string
	Outcome Outcome
}

// Results is the engine's full verdict: every rule's outcome, never
// short-circuited.
type Results []Result

// IsAccept reports whether every rule accepted.
func (r Results) IsAccept() bool {
	for _, res := range r {
		if !res.Outcome.Accept {
			return false
		}
	}
	return true
}

// Rejections returns the subset of results that rejected, in evaluation
// order — used to build a ValidationRejected error.
func (r Results) Rejections() []Result {
	var out []Result
	for _, res := range r {
		if !res.Outcome.Accept {
			out = append(out, res)
		}
	}
	return out
}

func (r Results) String() string {
	rej := r.Rejections()
	if len(rej) == 0 {
		return "accept"
	}
	s := ""
	for i, res := range rej {
		if i > 0 {
			s += "; "
		}
		s += res.Rule + ": " + res.Outcome.Reason
	}
	return s
}

// CollectionAdminResolver answers "who administers this collection on
// chain, and has it even been deployed yet" for the signer-is-admin rule.
// Implemented by the chain package; a nil resolver in Context is treated as
// "not deployed", matching the original's "skip until deployment-detection
// lands" comment.
type CollectionAdminResolver interface {
	ResolveAdmin(ctx context.Context, chainID uint64, collection common.Address) (admin common.Address, deployed bool, err error)
}

// Context is everything a Rule may consult. It never exposes a Store write
// path — rules only ever read (spec §4.5, "Store's write side is exclusive
// to the Controller").
type Context struct {
	Store           store.Reader
	Admin           CollectionAdminResolver
	SupportedChains map[uint64]bool
}

// Rule is a single named predicate over a premint and its context.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, p premint.Premint, rc Context) Outcome
}

// Engine evaluates every registered rule against a premint, never
// short-circuiting, and returns the full Results set (spec §4.3).
type Engine struct {
	rules []Rule
}

// New builds an engine from an explicit rule set, in evaluation order.
func New(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate runs every rule against p and returns the full result set.
func (e *Engine) Evaluate(ctx context.Context, p premint.Premint, rc Context) Results {
	results := make(Results, 0, len(e.rules))
	for _, r := range e.rules {
		results = append(results, Result{Rule: r.Name(), Outcome: r.Evaluate(ctx, p, rc)})
	}
	return results
}
