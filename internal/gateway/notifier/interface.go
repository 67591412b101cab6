package notifier

// TextNotifier sends a plain text message. Load alerts depend on this
// instead of a concrete transport.
type TextNotifier interface {
	SendText(text string) error
}
