//go:generate go run go.uber.org/mock/mockgen -source=stats_iface.go -destination=../mocks/mock_stats.go -package=mocks
package core

// StatsNotifier receives a lightweight signal whenever the room count
// or a room's membership changes. It must never block the caller.
type StatsNotifier interface {
	Changed()
}
