// Package search drives page-by-page retrieval of catalog search results.
//
// The results endpoint answers each page with a JSON envelope whose "html"
// field holds the results fragment. The controller fetches one page at a
// time, builds a record per listing, and stops when a page has no listings
// or the records limit is exceeded.
//
// Example usage:
//
//	c, err := client.New(client.DefaultConfig("carsearch/1.0"))
//	ctrl, err := search.NewController(c, search.DefaultParameters(), search.DefaultConfig())
//	opts := search.DefaultSearchOptions()
//	opts.Sort = "Price (Lowest)"
//	opts.Limit = 200
//	records, err := ctrl.Search(ctx, opts)
//
// Per page:
//   - a non-200 status or a fetch/envelope failure costs one attempt
//   - once MaxAttemptsPerPage attempts have failed the page is skipped
//   - a listing whose markup cannot be read is logged and skipped alone
//   - cancelling ctx ends the search with the records gathered so far
//
// Without a Limit the search ends only on an empty page. Callers searching
// a service that never runs out of pages must set one.
package search
