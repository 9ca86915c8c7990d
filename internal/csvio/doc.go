// Package csvio reads the scheduler CSV exports into header-keyed records.
//
// The first row provides the column headers, blank lines are skipped and no
// type coercion happens: every value stays a string. Input is decoded through
// golang.org/x/text so Windows exports (UTF-8 with BOM, Windows-1252, UTF-16)
// are read the same way as plain UTF-8.
package csvio
