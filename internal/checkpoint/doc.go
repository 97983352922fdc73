// Package checkpoint persists crawl progress so an interrupted harvest can
// resume without refetching completed pages or re-emitting known records.
//
// A checkpoint holds two things:
//   - the last completed listing page of every region
//   - the set of record identities that have already been written
//
// Both only ever grow. State is the in-memory form shared by the crawl
// components; a Store loads and saves it. Two stores are provided:
//
//   - FileStore: a JSON document replaced atomically on every save
//   - SQLiteStore: a modernc.org/sqlite database updated in one transaction
//
// Loading never fails because of a missing or corrupt checkpoint. The store
// logs a warning and hands back an empty State, so a damaged file costs
// refetching work instead of blocking the whole crawl.
package checkpoint
