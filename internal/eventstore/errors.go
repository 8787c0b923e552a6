package eventstore

import "errors"

// Sentinel errors for event store operations, wrapped with the
// underlying driver/encoding error via %w so callers can classify a
// failure with errors.Is without parsing messages.
var (
	ErrDatabaseOpenFailed      = errors.New("event store: could not open database")
	ErrInitializeSchemaFailed  = errors.New("event store: failed to initialize schema")
	ErrEventAppendFailed       = errors.New("event store: failed to append event")
	ErrEventQueryFailed        = errors.New("event store: failed to query events")
	ErrEventScanFailed         = errors.New("event store: failed to scan event rows")
	ErrMarshalPayloadFailed    = errors.New("event store: failed to marshal event metadata")
	ErrUnmarshalPayloadFailed  = errors.New("event store: failed to unmarshal event metadata")
	ErrProjectionRebuildFailed = errors.New("event store: failed to rebuild projection")
)
