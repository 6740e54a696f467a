// Package parser turns uploaded CSV and Excel files into header-keyed rows
// for the importer.
//
// CSV input may arrive with a UTF-8 byte order mark, in Windows-1252 (the
// default for "CSV" saved by Spanish Excel installations) and with ";" as
// the delimiter. All of these are detected; callers only pass the file name
// and contents to [Parse].
package parser
