// Package protocol builds and parses the JSON messages exchanged with the
// audio ingestion service, and converts sample blocks to and from the f32le
// wire encoding.
//
// Every outbound message is an envelope:
//
//	{"event_type": "<type>", "payload": {...}}
//
// The service answers init with a flat acknowledgment:
//
//	{"status": "SUCCESS", "raw_data_id": "<session id>"}
package protocol
