package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/search"
)

// Search feeds the typed text to the debouncer; an empty text clears the
// results once the window passes.
func (a *App) Search(ctx context.Context, args []string) error {
	a.searcher.Type(ctx, strings.Join(args, " "))
	return nil
}

// showResults runs on the debouncer's goroutine.
func (a *App) showResults(r search.Result) {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	if r.Cleared {
		a.results, a.query = nil, ""
		a.location = search.StripQuery(a.location)
		return
	}
	if r.Err != nil {
		fmt.Fprintf(a.out, "\nSearch failed: %v\n", r.Err)
		return
	}

	a.results, a.query = r.Files, r.Query
	if len(r.Files) == 0 {
		fmt.Fprintf(a.out, "\nNo files found\n")
		return
	}
	fmt.Fprintf(a.out, "\nResults for %q:\n", r.Query)
	for i, f := range r.Files {
		fmt.Fprintf(a.out, "  %d. %s  %s\n", i+1, f.Name, formatDate(f.CreatedAt))
	}
	fmt.Fprintln(a.out, "Use 'pick <n>' to open one.")
}

// Pick opens the listing of the chosen search result with the query kept.
func (a *App) Pick(ctx context.Context, args []string) error {
	a.outMu.Lock()
	results, query := a.results, a.query
	a.outMu.Unlock()

	if len(args) != 1 {
		a.printf("Usage: pick <n>\n")
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(results) {
		return a.report(fmt.Errorf("no search result %s", args[0]))
	}

	route := search.Route(results[n-1], query)
	a.clearResults()
	a.setLocation(route)
	a.printf("%s\n", route)
	return nil
}

func (a *App) clearResults() {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	a.results, a.query = nil, ""
}

func (a *App) setLocation(loc string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	a.location = loc
}
