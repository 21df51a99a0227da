package spinner

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Frames and interval of the "dots" spinner from
// https://github.com/sindresorhus/cli-spinners/blob/main/spinners.json
var (
	dotsFrames   = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dotsInterval = 80 * time.Millisecond

	colourMap = map[string]color.Attribute{
		"black":   color.FgBlack,
		"red":     color.FgRed,
		"green":   color.FgGreen,
		"yellow":  color.FgYellow,
		"blue":    color.FgBlue,
		"magenta": color.FgMagenta,
		"cyan":    color.FgCyan,
		"white":   color.FgWhite,
	}
)

type Spinner struct {
	Colour     *color.Color
	Msg        string
	SuccessMsg string
	ErrMsg     string

	active bool
	count  int
	total  int
	mu     sync.Mutex
	stop   chan struct{}
	done   sync.WaitGroup
}

func New(colour, message string) *Spinner {
	colourAttribute, ok := colourMap[colour]
	if !ok {
		colourAttribute = color.FgWhite
	}
	return &Spinner{
		Colour: color.New(colourAttribute),
		Msg:    message,
	}
}

// Starts the spinner
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done.Add(1)

	go func() {
		defer s.done.Done()
		for {
			for _, frame := range dotsFrames {
				select {
				case <-s.stop:
					return
				default:
				}

				s.mu.Lock()
				msg := s.Msg
				if s.total > 0 {
					msg = fmt.Sprintf("%s [%d/%d]", s.Msg, s.count, s.total)
				} else if s.count > 0 {
					msg = fmt.Sprintf("%s [%d]", s.Msg, s.count)
				}
				s.mu.Unlock()

				s.Colour.Printf("\r%s %s", frame, msg)
				time.Sleep(dotsInterval)
			}
		}
	}()
}

// SetProgress switches the spinner message into "[n/total]" counter mode.
func (s *Spinner) SetProgress(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
	s.total = total
}

// MsgIncrement bumps the progress counter shown next to the message.
func (s *Spinner) MsgIncrement() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
}

// UpdateMsg swaps the message shown next to the spinner.
func (s *Spinner) UpdateMsg(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Msg = message
}

// Stop stops the spinner and prints an outcome message
func (s *Spinner) Stop(hasErr bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stop)
	s.mu.Unlock()

	s.done.Wait()
	if hasErr {
		color.Red("\r✗ %s\n", s.ErrMsg)
	} else {
		color.Green("\r✓ %s\n", s.SuccessMsg)
	}
}
