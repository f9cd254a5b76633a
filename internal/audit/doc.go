// Package audit carries gatekeeper access events over an in-process
// watermill bus.
//
//   - bus.go: publisher implementing service.EventPublisher on gochannel
//   - sink.go: subscriber that writes events to the structured log
//
// Publishing never blocks a request; events published with no subscriber
// are dropped.
//
// @design DS-0207
package audit
