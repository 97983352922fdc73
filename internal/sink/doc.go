// Package sink appends harvested rows to the output file.
package sink
