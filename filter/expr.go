package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/marquee/tmdb"
)

const dateLayout = "2006-01-02"

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// item fields are only known at run time
	env := make(map[string]any, len(c.helperFuncs)+len(itemHelperStubs))
	maps.Copy(env, c.helperFuncs)
	maps.Copy(env, itemHelperStubs)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
	}
	if c.cache != nil {
		c.cache.Put(expression, filter)
	}
	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a catalog item. Items that make the
// expression fail at run time do not match.
func (f *exprFilter) Evaluate(item tmdb.CatalogItem) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(item))
	if err != nil {
		return false
	}
	matched, ok := result.(bool)
	return ok && matched
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds the helpers that do not depend on the item
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse(dateLayout, dateStr)
		return t
	}
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

// itemHelperStubs gives the compiler the signatures of the per-item helpers
var itemHelperStubs = map[string]any{
	"isMovie":        func() bool { return false },
	"isTV":           func() bool { return false },
	"releasedAfter":  func(time.Time) bool { return false },
	"releasedBefore": func(time.Time) bool { return false },
}

// createRuntimeEnvironment creates the runtime environment for filter evaluation
func createRuntimeEnvironment(item tmdb.CatalogItem) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env)

	kind := item.Kind.OrDefault()
	released, _ := time.Parse(dateLayout, item.ReleaseDate)

	env["Item"] = item
	env["ID"] = item.ID
	env["Title"] = item.Title
	env["Rating"] = item.VoteAverage
	env["Year"] = item.Year()
	env["Kind"] = string(kind)
	env["ReleaseDate"] = item.ReleaseDate
	env["Released"] = released
	env["HasPoster"] = item.Poster() != ""
	env["Popularity"] = item.Popularity
	env["Overview"] = item.Overview

	env["isMovie"] = func() bool { return kind == tmdb.KindMovie }
	env["isTV"] = func() bool { return kind == tmdb.KindTV }
	env["releasedAfter"] = createReleasedFunc(released, time.Time.After)
	env["releasedBefore"] = createReleasedFunc(released, time.Time.Before)

	return env
}

// createReleasedFunc compares the release date; unknown dates never match
func createReleasedFunc(released time.Time, cmp func(time.Time, time.Time) bool) func(time.Time) bool {
	return func(date time.Time) bool {
		return !released.IsZero() && cmp(released, date)
	}
}

// Apply returns the items matching f, keeping their order
func Apply(f Filter, items []tmdb.CatalogItem) []tmdb.CatalogItem {
	if f == nil {
		return items
	}
	matches := make([]tmdb.CatalogItem, 0, len(items))
	for _, item := range items {
		if f.Evaluate(item) {
			matches = append(matches, item)
		}
	}
	return matches
}
