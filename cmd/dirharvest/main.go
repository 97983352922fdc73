// Package main provides the entry point for the dirharvest CLI.
//
// dirharvest walks every region of a paginated doctor directory, resolves
// each listing into a profile with its offices and appends one CSV row per
// office. Progress is checkpointed so an interrupted run resumes where it
// stopped.
//
// Usage:
//
//	dirharvest crawl
//	dirharvest status
//
// See --help for all available options.
package main

func main() {
	Execute()
}
