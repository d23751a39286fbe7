// Package state holds the document a program executes against.
//
// A State is a JSON-shaped tree with two seeded root sections:
//
//	{"inputs": <caller inputs>, "temp": {}}
//
// Steps read it with Get and write it with Set. The two operations are
// deliberately asymmetric:
//
//   - Get falls back into the inputs section: "/x" resolves to "/inputs/x"
//     when the document has no root key "x".
//   - Set replaces any location that already resolves, and otherwise
//     auto-creates at most one level: "/key" creates a root key and
//     "/section/key" creates the section object when it is missing.
//     Deeper new paths fail with InvalidWritePathError.
//
// Pointer resolution itself (Lookup, Replace) is a pure function over the
// tree and is usable without a State.
//
// A State belongs to exactly one execution and is not safe for concurrent use.
package state
