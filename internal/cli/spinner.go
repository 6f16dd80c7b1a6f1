package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// spinner animates one terminal line while a slow render runs. A nil
// *spinner is valid and does nothing.
type spinner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startSpinner draws message to w until Stop is called or ctx ends.
func startSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", len(message)+4))
				return
			case <-ticker.C:
				frame := string(spinnerFrames[i%len(spinnerFrames)])
				fmt.Fprintf(w, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(message))
			}
		}
	}()
	return s
}

// Stop clears the line and waits for the animation to end. It may be
// called more than once.
func (s *spinner) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}
