// Package archive maintains the single downloadable bundle of the output
// directory.
//
// Manager.Rebuild snapshots every regular file in the output directory into a
// zip written beside the bundle and renamed over it, so readers only ever see a
// complete bundle. There is at most one bundle at a time.
package archive
