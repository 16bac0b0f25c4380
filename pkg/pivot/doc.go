// Package pivot turns a declarative data-source schema plus a user-authored dashboard
// configuration into a parameterized SELECT statement, normalizes the rows it returns and
// folds them into a grouped pivot tree with subtotals.
//
// Flow: DashboardConfig -> Build -> (SQL, Params) -> executor -> Normalizer -> RawRow ->
// TreeBuilder -> TreeNode.
//
// Nothing in this package performs I/O or keeps state between calls; every function is safe
// for concurrent use on independent arguments. Schemas are read, never mutated.
package pivot
