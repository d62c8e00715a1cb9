// Package log implements structured event logging for the device registry
// and interaction core: an application-pluggable Logger interface, a
// canonical-CBOR codec for persisted replay logs, and an slog-backed
// console adapter.
package log
