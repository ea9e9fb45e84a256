// Package deps reports whether the external tools transcribr shells out to are
// installed. Requirements derives the list from configuration so that `check`
// and the pre-batch preflight agree on what is needed.
package deps
