// Package protocol implements the binary wire protocol spoken between a
// bridge and a remote tree producer.
//
// The producer pushes trees (or the "not yet" sentinel) and the bridge sends
// events and frame requests back. Binary framing is an alternative to the
// JSON markup accepted by tree.DecodeJSON; both carry the same information.
//
// # Wire Format
//
// All messages are framed with a 5-byte header:
//
//	┌─────────────┬───────────────────────────────┐
//	│ Frame Type  │ Payload Length                │
//	│ (1 byte)    │ (4 bytes, big-endian)         │
//	└─────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameTree (0x01): producer → bridge, one encoded tree
//   - FrameNotYet (0x02): producer → bridge, empty payload
//   - FrameEvent (0x03): bridge → producer, handler context and value
//   - FrameRequest (0x04): bridge → producer, empty payload
//   - FrameError (0x05): either direction
//
// # Encoding
//
//   - Varint: Compact encoding for small integers (protobuf-style)
//   - ZigZag: Signed integers (hashes) encoded as unsigned varints
//   - Length-prefixed: Strings prefixed with varint length
//   - Tagged values: Opaque payloads (attribute values, handler contexts,
//     event values) carry a one-byte type tag, see ValueType
//
// A tree is encoded as a kind byte followed by either a leaf string or a
// node:
//
//	[Hash: svarint][Tag: string]
//	[AttrsHash: svarint][Count: varint]{[Name][Hash: svarint][Flags: byte][Value]}
//	[EntriesHash: svarint][Count: varint]{[Key][Tree]}
//
// Attributes are written in name order so equal nodes encode identically.
//
// # Limits
//
// Decoding enforces allocation, collection and depth limits so that a
// misbehaving producer cannot exhaust memory or stack.
package protocol
