// Package value provides the typed document value domain.
//
// Value is a sealed interface; only the types in this package implement it.
// Every value belongs to exactly one type category, and each category has a
// fixed rank used for cross-type ordering:
//
//	Null(0) < NaN(1) < Boolean(2) < Number(3) < Date(4) < String(5)
//	< Bytes(6) < Reference(7) < GeoPoint(8) < Array(9) < Map(10)
//
// Two comparison modes exist:
//   - Compare: the default total order. Ranks decide first, then the
//     within-type rules. NaN and Null are ordinary members of the order.
//   - QueryCompare: query filter semantics. Ordering operators never match
//     across type categories, and NaN never satisfies #= or #!=.
//
// Number keeps its integer or floating kind for round-tripping, but kind is
// invisible to comparison: Int(3) and Double(3.0) are equal.
//
// Arrays and Maps nest at most MaxDepth levels; the codecs refuse deeper
// values.
//
// Values are immutable once constructed. Constructors copy caller-owned
// slices; callers must not mutate slices obtained from accessors.
package value
