package model

// MessageState tracks a message through a single pipeline run.
type MessageState string

const (
	StateUnseen         MessageState = "UNSEEN"
	StateFetched        MessageState = "FETCHED"
	StateComposed       MessageState = "COMPOSED"
	StateGenerated      MessageState = "GENERATED"
	StateParsed         MessageState = "PARSED"
	StateDispatched     MessageState = "DISPATCHED"
	StateDispatchFailed MessageState = "DISPATCH_FAILED"
	StateLogged         MessageState = "LOGGED"
	StateFetchFailed    MessageState = "FETCH_FAILED"
	StateSkipped        MessageState = "SKIPPED"
)
