// Package model defines the core data structures used throughout dirharvest.
//
// This package contains the following main types:
//   - Region: A crawl target (one city listing) returned by the directory
//   - ListingEntry: A lightweight card parsed from one listing page
//   - Record: A harvested profile with its ordered offices
//   - Office: A location and contact sub-record owned by one Record
//   - Row: The flattened Record x Office tuple written to the output file
//   - RunSummary: Per-region counters collected during one crawl run
//
// The types live in their own package because the crawler, pipeline, sink
// and report packages all share them.
package model
