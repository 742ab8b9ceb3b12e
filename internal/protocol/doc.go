// Package protocol tokenizes kvstored's line-oriented text wire protocol.
//
// A request line is VERB[ KEY[ VALUE]]. The verb is whitespace-delimited and
// matched case-sensitively against the known verb set (PUT, GET, DELETE,
// EXISTS, SIZE, PING, FLUSH, STATS). The key, if present, may be quoted with
// a matching pair of `"` or `'`; the value is everything remaining on the
// line, with one matching pair of outer quotes stripped if present.
package protocol
