// Package pagination walks an offset-paginated listing endpoint.
//
// Pages are requested one at a time at offsets 0, limit, 2*limit, ... until
// the server answers with an empty page. A fixed pause follows every
// non-empty page.
//
// Example usage:
//
//	pager := pagination.NewPager(fetcher, pacer, pagination.Config{PageSize: 100})
//	result := pager.CollectIDs(ctx)
//	if result.Err != nil {
//		// listing stopped early, result.IDs holds what was gathered
//	}
//
// A failed page is a soft stop, not an error: the pager keeps every id seen
// so far and reports the cause in Result.Err. There is no retry and no
// resume point.
package pagination
