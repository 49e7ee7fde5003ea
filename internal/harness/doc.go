// Package harness runs tracefold scenarios: YAML files that describe one
// evaluation, enumeration or checkpointed merge and the assertions its
// output must satisfy.
//
// # Scenario Format
//
//	name: second_order
//	description: "Order-2 determinant product"
//	kind: evaluate            # evaluate | enumerate | merge
//	order: 2
//	flavors: [up, dn]
//	assertions:
//	  - type: rendered
//	    value: "1 / 1 +  {A} ..."
//	  - type: term_count
//	    count: 2
//
// Kinds:
//
//   - evaluate: builds the two determinant expansions of the given order
//     and flavors, then evaluates their product. With checkpoint: true the
//     expanded product goes through a checkpoint run in a temporary
//     directory instead.
//   - enumerate: lists the contraction patterns of points points, one
//     shape line followed by its indented signatures.
//   - merge: decodes input (a JSON term file, relative to the scenario)
//     and merges it through a checkpoint run split into file_terms terms.
//
// # Assertion Types
//
//   - rendered: the final Sum renders exactly as value
//   - contains: the output contains value
//   - term_count: the final Sum has exactly count terms
//   - single_pass: a merge run equals one batched merge of the whole input
//
// # Deterministic Testing
//
// Checkpoint runs use sequential run ids (testutil.SequentialIDs) and a
// fresh temporary directory per scenario, so the same scenario produces
// byte-identical snapshots. RunWithGolden compares the snapshot against
// testdata/golden/<name>.golden.
package harness
