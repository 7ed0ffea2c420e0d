package notify

import (
	"context"
	"log/slog"
)

// Result is the delivery outcome for one channel.
type Result struct {
	Channel string
	Err     error
}

// Fanout dispatches one summary through every configured channel.
// Notification is best-effort and strictly downstream of persistence: a
// channel failure is logged and recorded but never blocks the remaining
// channels, and nothing is retried within a cycle.
type Fanout struct {
	channels []Channel
}

func NewFanout(channels ...Channel) *Fanout {
	return &Fanout{channels: channels}
}

// ChannelCount returns how many channels are configured.
func (f *Fanout) ChannelCount() int {
	return len(f.channels)
}

// Send delivers the summary to each channel in turn and collects the
// per-channel results. With zero channels configured it is a no-op.
func (f *Fanout) Send(ctx context.Context, summary Summary) []Result {
	results := make([]Result, 0, len(f.channels))

	for _, channel := range f.channels {
		err := channel.Send(ctx, summary)
		if err != nil {
			slog.Warn("Notification channel failed", "channel", channel.Name(), "error", err)
		} else {
			slog.Debug("Notification sent", "channel", channel.Name())
		}
		results = append(results, Result{Channel: channel.Name(), Err: err})
	}

	return results
}
