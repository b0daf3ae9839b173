// Package idfilter parses the textual collection-id filter used by the
// missing-parts views.
//
// # Grammar
//
// A filter is a list of tokens separated by ';' or ',' (both may appear in the
// same string). Each token is either a single id ("229") or an inclusive range
// ("200-220"). Whitespace around tokens and around the range dash is ignored.
//
//	"229"
//	"200-220"
//	"200;204;205"
//	"200,204,205"
//	"200-210;229;250-260"
//
// Invalid tokens are skipped and reported through Filter.Invalid. Input that is
// empty, or that contains no valid token at all, yields an unrestricted filter.
// A filter never silently matches nothing.
//
// # Usage
//
//	f := idfilter.Parse(c.Query("ids"))
//	for _, tok := range f.Invalid {
//	    log.Warn("Skipping invalid filter token", zap.String("token", tok))
//	}
//	if f.Allows(record.InternalID) { ... }
package idfilter
