// Package query matches stored documents against collection scopes and
// field filters.
//
// Every function here is a pure filter over a scanned document set: no
// indexes, no planning, no I/O. Results keep scan order unless a Query
// asks for ordering.
//
// Scopes:
//
//	Collection(docs, parent, id)   direct children of <parent>/<id>
//	CollectionGroup(docs, id)      every document whose parent collection is <id>
//
// Field access uses MapGet, which degrades to Null instead of failing, so
// chained lookups over absent or non-map values are always safe:
//
//	MapGet(MapGet(props, "qux"), "foo")
//
// Source and Predicate are sealed interfaces using the marker method pattern,
// so evaluators can switch over them exhaustively.
package query
