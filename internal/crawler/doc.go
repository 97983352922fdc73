// Package crawler walks the directory: it lists regions, pages through each
// region listing and resolves listing entries into full records.
//
// # Components
//
//   - Enumerator: fetches the ordered region list
//   - Pager: the per-region pagination state machine
//   - Dedup: two-phase identity filter over the checkpoint state
//   - Extractor: resolves one listing entry into a Record, one phone lookup
//     per office
//
// # Politeness
//
// Listing fetches of one Pager are spaced by a page delay. Requests of all
// components additionally share the transport's request limiter when one
// is configured.
//
// # Usage
//
//	pager := crawler.NewPager(client, base, region, state.ResumePage(region.ID),
//		crawler.WithPageDelay(2*time.Second))
//	for {
//		out, err := pager.Next(ctx)
//		if err != nil || out.Kind == crawler.Stop {
//			break
//		}
//		// handle out.Entries
//	}
package crawler
