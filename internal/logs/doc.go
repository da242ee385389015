// Package logs reads the promptindex log file for `promptindex logs`.
//
// Last returns the final N lines with bounded memory, Follow polls for lines
// appended after an offset until its context ends, and MatchScan narrows
// output to one scan session in either log format.
package logs
