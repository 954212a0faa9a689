package orchestrator

type State string

const (
	StateConnecting State = "connecting"
	StateValidating State = "validating"
	StateGreeting   State = "greeting"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateClosing    State = "closing"
	StateFinalized  State = "finalized"
	StateError      State = "error"

	// StateRejected is entered before any session row exists, for a topic
	// that does not resolve or a session that could not be created.
	StateRejected State = "rejected"
)

// EndReason says why the turn loop stopped.
type EndReason string

const (
	EndDeadline   EndReason = "deadline"
	EndDisconnect EndReason = "disconnect"
	EndCancelled  EndReason = "cancelled"
	EndError      EndReason = "error"
)

// user-visible notices
const (
	NoticeInvalidTopic        = "Error: Invalid topic selected."
	NoticeStartFailed         = "Error: Could not start the session."
	NoticeTranscriptionFailed = "Error: Could not transcribe audio."
	NoticeGenerationFailed    = "Error: AI could not generate a response."
	NoticeTimeUp              = "Conversation time is up. Disconnecting..."
)

func greeting(topic string) string {
	return "Let's talk about " + topic + ". What do you think about it?"
}
