package strictout

import (
	"context"
	"fmt"

	j "github.com/goccy/go-json"

	"github.com/reoring/strictout/internal/repairer"
)

// TypeContract validates a parsed value against a target type. It is an
// external capability: the embedder supplies one from whatever type
// description system it uses, and this package never constructs one itself.
// Validate returns the (possibly converted) typed value, or an error when the
// value does not conform.
type TypeContract interface {
	Validate(ctx context.Context, v any) (any, error)
}

// RepairResult is the structured outcome of RepairAndValidate. It is
// constructed fresh per call and immutable by convention.
//
// Invariants: Success implies Value is set; when RepairApplied is false a
// non-empty RepairedText equals the original input verbatim.
type RepairResult struct {
	// Success reports whether a parsed (and, when a contract was supplied,
	// validated) value was produced.
	Success bool
	// RepairedText is the candidate text that produced Value, when one exists.
	RepairedText string
	// Value is the parsed value, validated by the contract when one was
	// supplied.
	Value any
	// OriginalErr preserves the root cause across all repair tiers: the first
	// syntax error, or the validation error when the input parsed cleanly but
	// failed the contract.
	OriginalErr error
	// RepairApplied reports whether any repair tier ran.
	RepairApplied bool
	// Diagnostic names the tier and attempt that succeeded, or summarizes the
	// attempts made when repair was exhausted.
	Diagnostic string
}

// maxRepairTiers is the number of repair strategies available, in order of
// increasing aggressiveness.
const maxRepairTiers = 3

// RepairOpt controls the repair pipeline.
type RepairOpt struct {
	// EnableRepair turns the repair tiers on. Zero value disables repair;
	// start from DefaultRepairOpt to keep them on.
	EnableRepair bool
	// MaxAttempts bounds how many tiers run (1..3). Zero means all tiers.
	MaxAttempts int
}

// DefaultRepairOpt returns the default pipeline options: repair enabled,
// every tier available.
func DefaultRepairOpt() RepairOpt {
	return RepairOpt{EnableRepair: true, MaxAttempts: maxRepairTiers}
}

// RepairAndValidate parses text as JSON and recovers a well-typed value even
// when the text is malformed. On a clean parse the value is validated against
// the contract (when supplied) and returned immediately. On a syntax error,
// increasingly aggressive repair tiers run in order; each candidate that
// parses is validated, and a validation failure advances to the next tier
// rather than aborting, because a different heuristic may produce a shape the
// contract accepts.
//
// RepairAndValidate never returns an error for malformed input; the outcome
// is always a RepairResult. Converting Success=false into an error is the
// caller's boundary decision.
func RepairAndValidate(ctx context.Context, text string, contract TypeContract, opts ...RepairOpt) RepairResult {
	opt := DefaultRepairOpt()
	if len(opts) > 0 {
		opt = opts[0]
	}
	maxAttempts := opt.MaxAttempts
	if maxAttempts <= 0 || maxAttempts > maxRepairTiers {
		maxAttempts = maxRepairTiers
	}

	v, perr := parseJSON(text)
	if perr == nil {
		validated, verr := applyContract(ctx, contract, v)
		if verr != nil {
			// Syntactically fine, content wrong: repair cannot help.
			return RepairResult{OriginalErr: verr}
		}
		return RepairResult{Success: true, RepairedText: text, Value: validated}
	}

	if !opt.EnableRepair {
		return RepairResult{OriginalErr: perr}
	}

	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		res, ok := runTier(ctx, attempt, text, contract)
		if ok {
			return res
		}
	}
	return RepairResult{
		RepairApplied: true,
		OriginalErr:   perr,
		Diagnostic:    fmt.Sprintf("repair exhausted after %d attempts", attempts),
	}
}

// runTier executes one repair strategy. ok is false when the tier produced no
// usable candidate or the candidate failed validation; the pipeline then
// advances to the next tier.
func runTier(ctx context.Context, attempt int, text string, contract TypeContract) (RepairResult, bool) {
	switch attempt {
	case 1:
		// Basic structural repair: minimal textual fixes.
		cand := repairer.Sanitize(text)
		if cand == "" {
			return RepairResult{}, false
		}
		v, err := parseJSON(cand)
		if err != nil {
			return RepairResult{}, false
		}
		return finishTier(ctx, contract, v, cand, "basic structural repair", attempt)

	case 2:
		// Aggressive object-mode repair: tolerant read, canonical re-serialize.
		v, err := repairer.Parse(text, repairer.ModeStructured)
		if err != nil {
			return RepairResult{}, false
		}
		b, err := j.Marshal(v)
		if err != nil {
			return RepairResult{}, false
		}
		cand := string(b)
		// Round-trip through the strict parser so the reported value matches
		// the candidate text exactly.
		rv, err := parseJSON(cand)
		if err != nil {
			return RepairResult{}, false
		}
		return finishTier(ctx, contract, rv, cand, "object mode repair", attempt)

	default:
		// Return-object fallback: the tolerant value is used directly.
		v, err := repairer.Parse(text, repairer.ModeAnyValue)
		if err != nil {
			return RepairResult{}, false
		}
		cand := ""
		if b, merr := j.Marshal(v); merr == nil {
			cand = string(b)
		}
		return finishTier(ctx, contract, v, cand, "value fallback", attempt)
	}
}

func finishTier(ctx context.Context, contract TypeContract, v any, cand, tier string, attempt int) (RepairResult, bool) {
	validated, verr := applyContract(ctx, contract, v)
	if verr != nil {
		return RepairResult{}, false
	}
	return RepairResult{
		Success:       true,
		RepairedText:  cand,
		Value:         validated,
		RepairApplied: true,
		Diagnostic:    fmt.Sprintf("%s (attempt %d)", tier, attempt),
	}, true
}

func applyContract(ctx context.Context, contract TypeContract, v any) (any, error) {
	if contract == nil {
		return v, nil
	}
	return contract.Validate(ctx, v)
}

// parseJSON is the direct parse attempt: a thin wrapper over strict JSON
// decoding with no repair logic.
func parseJSON(text string) (any, error) {
	var v any
	if err := j.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}
