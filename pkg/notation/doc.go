/*
Package notation parses the shorthand used to log gamebook transitions.

A line lists the page being read, the options that were rejected, and finally the
option that was taken:

	12,40,88*           12 offered 40 and 88; 40 was rejected, 88 (secret) was taken
	88,120t | the end   88 chose 120, which ends the book
	42x                 page 42 is a dead end

Every token may carry trailing single-character markers:

	+  required page      t  end page        x  dead end
	s  start page         *  secret transition

Markers are stripped by Tokenize into a MarkerSet. When several markers appear on a
source token they are emitted in the fixed precedence order Dead, Required, End,
Start, Secret, so that combined markers never depend on the order they were typed.

Free-text tags follow an explicit "|" delimiter. Shape-based tag inference (a
trailing non-numeric token being a tag) is only enabled with WithTagInference.
*/
package notation
