// Package asyncx holds the few concurrency helpers shared across the
// service: a bounded worker pool that keeps input order, retry with
// exponential backoff and a hard deadline wrapper.
//
//	pages, err := asyncx.Pool(ctx, 4, indexes, func(ctx context.Context, i int) (Page, error) {
//	    return extract(ctx, i)
//	})
//
// Every helper waits for the goroutines it starts, except WithTimeout which
// returns at the deadline and lets fn observe the cancelled context.
package asyncx
