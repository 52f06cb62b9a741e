// Package replay plays recorded tree streams into a bridge.
//
// A recording is a JSON-lines stream: each line holds one JSON tree, or null
// for "not yet". Recordings load from a reader, a file or an S3 object.
//
// A Player delivers the recording either all at once as a push producer or
// one tree per RequestFrame. Events the bridge sends back can be written to
// a Recorder, one JSON line per event, each tagged with a ULID.
package replay
