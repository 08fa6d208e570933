package orchestrator

import "fmt"

// Kind classifies a pipeline failure so the user-visible reply and the log
// line can be chosen without a type switch over concrete errors.
type Kind string

const (
	KindRetrievalUnavailable     Kind = "RetrievalUnavailable"
	KindCompletionFailed         Kind = "CompletionFailed"
	KindConversationStoreFailed Kind = "ConversationStoreUnavailable"
	KindPlatformPostFailed       Kind = "PlatformPostFailed"
	KindDeadlineExceeded         Kind = "DeadlineExceeded"
	KindUnknown                  Kind = "Unknown"
)

// pipelineError carries a classification alongside the wrapped cause so the
// user-facing reply can be chosen by kind rather than by inspecting the
// underlying error.
type pipelineError struct {
	kind  Kind
	cause error
}

func (e *pipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

func (e *pipelineError) Unwrap() error {
	return e.cause
}

func classify(kind Kind, cause error) *pipelineError {
	return &pipelineError{kind: kind, cause: cause}
}

// userMessage chooses the reply text for a classified error: each kind has
// its own message, and an unclassified error or an unlisted kind gets a
// generic apology.
func userMessage(err error) string {
	var pe *pipelineError
	if !asPipelineError(err, &pe) {
		return "I encountered an error while processing your request. Please try again or contact support if the issue persists."
	}

	switch pe.kind {
	case KindDeadlineExceeded:
		return "That took too long to process. Please try again."
	case KindCompletionFailed:
		return "I encountered an error while processing your request. The operation timed out. Please try again later."
	case KindRetrievalUnavailable:
		return "I couldn't search for relevant information right now, but here's what I can tell you without it."
	case KindConversationStoreFailed:
		return "I couldn't save this conversation, but here's my response."
	default:
		return "I encountered an error while processing your request. Please try again or contact support if the issue persists."
	}
}

func asPipelineError(err error, target **pipelineError) bool {
	for err != nil {
		if pe, ok := err.(*pipelineError); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
