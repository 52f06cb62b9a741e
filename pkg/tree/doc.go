// Package tree defines the immutable UI tree delivered by a foreign producer.
//
// A Tree is either a Leaf (plain text) or a *Node. Every Node carries three
// producer-supplied hashes:
//
//   - Hash summarizes the whole subtree (tag, attributes and entries).
//   - AttrsHash summarizes the set of (name, attribute hash) pairs.
//   - EntriesHash summarizes the ordered (key, value hash) sequence.
//
// Hashes are consumed, never computed, by this module's reconciler. Equal
// hashes are trusted to mean equal values; a producer that violates this
// produces silently wrong output.
//
// # Wire Format
//
// DecodeJSON accepts the producer's JSON markup:
//
//	{
//	  "hash": 91,
//	  "tag": "button",
//	  "attrsHash": 12,
//	  "attrs": {
//	    "onClick": {"hash": 7, "event": true, "value": 42, "preventDefault": true}
//	  },
//	  "entriesHash": 33,
//	  "entries": [{"key": "0", "value": "Click me"}]
//	}
//
// A bare JSON string is a Leaf, and JSON null is the "not yet" sentinel used
// by frame-synchronized producers (decoded as a nil Tree).
package tree
