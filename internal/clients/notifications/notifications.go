package notifications

// Notifier pushes operator-facing alerts. The search pipeline itself
// never blocks on these; failures are logged and dropped.
type Notifier interface {
	NotifyAuthFailure(detail string)
	Test() error
}
