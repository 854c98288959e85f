// Package conn provides a transport over an arbitrary network connection.
//
// The peer speaks the same newline-delimited JSON records as the CLI, framed
// by a small envelope:
//
//	-> {"type":"hello","entrypoint":"sdk-go","version":"0.0.18","prompt":"..."}
//	-> {"type":"request","messages":[...],"options":{...}}
//	<- one record per line
//	<- {"type":"end_of_stream"}
//
// The end_of_stream record, or the peer closing the connection, ends the
// inbound sequence.
package conn
