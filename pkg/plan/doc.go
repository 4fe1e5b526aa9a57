// Package plan compiles search conditions into a typed query plan and renders
// it to parameterized SQL for a dialect.
//
// Compilation happens in two steps. Group splits the ordered condition list
// into OR-separated AND-blocks; Build turns the blocks into a Plan holding the
// joins the referenced fields require and a predicate tree. Render walks the
// tree once and binds every literal as a parameter.
package plan
