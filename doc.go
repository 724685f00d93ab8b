// Package strictout provides:
//
//   - Strict-mode normalization of JSON-Schema-shaped documents (closed objects,
//     mandatory properties, fully inlined $ref) via EnsureStrict
//   - A resilient parse-repair-validate pipeline for raw generator output via
//     RepairAndValidate, with tiered repair and a structured RepairResult
//   - A typed SchemaError model (code, JSON Pointer path) for misconfigured
//     schemas
//   - An optional bounded NormalizeCache for embedders that normalize the same
//     schema repeatedly
//
// Design policy:
//   - Keep only public APIs in the root package; put detailed implementations under internal/.
//   - Place the schema representation under jsonschema/ and the output-contract
//     boundary under outputschema/.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	normalized, err := strictout.EnsureStrict(schema)
//
//	res := strictout.RepairAndValidate(ctx, raw, contract)
//	if !res.Success {
//	    // res.OriginalErr holds the root cause, res.Diagnostic the repair trail.
//	}
//
// Both entry points are pure computations: every call owns its inputs and
// outputs, so they are safe to use from concurrent goroutines.
package strictout
