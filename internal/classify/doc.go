// Package classify derives severity, category, title, error code, and topic
// tags from a raw failure signal plus contextual metadata.
//
// Classification is a pure function family over the failure message: ordered
// keyword rule chains evaluated first-match-wins, open for extension with
// custom rules that take priority over the built-ins.
package classify
