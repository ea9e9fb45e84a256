// Package language maps the language names offered to users onto the codes
// the recognition backends understand.
//
// The catalog follows the Whisper model family: every supported language has a
// lower-case name ("english") and a short code ("en"). Lookups accept either
// form as well as BCP 47 tags such as "en-US", which are reduced to their base
// language with golang.org/x/text.
package language
