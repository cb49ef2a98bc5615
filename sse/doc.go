// Package sse streams Server-Sent Events to one HTTP client.
//
// A producer sends Events on a channel and closes it when done; Stream
// writes them as `event:`/`data:` frames with JSON payloads and keeps the
// connection alive with comment lines while the producer is quiet.
//
//	events := make(chan sse.Event, 16)
//	go produce(ctx, events)
//	_ = sse.Stream(w, r, events, log)
package sse
