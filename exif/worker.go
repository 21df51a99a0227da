package exif

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// readyMarker terminates every command's stdout in exiftool's
// stay-open protocol. stderrMarker is echoed to stderr after each
// command via -echo4, so error output is read line-synchronized
// instead of racing the process's flushing.
const (
	readyMarker  = "{ready}"
	stderrMarker = "{readyerr}"
)

// Worker wraps one long-lived exiftool process in stay-open mode, so
// tagging thousands of files does not pay the perl startup cost per
// file. A worker runs one command at a time; the mutex serializes
// callers sharing it.
type Worker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr chan string
}

// NewWorker spawns the exiftool process and leaves it waiting for
// commands on stdin.
func NewWorker(exiftoolPath string) (*Worker, error) {
	cmd := exec.Command(exiftoolPath, "-stay_open", "True", "-@", "-")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	worker := &Worker{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: make(chan string, 4),
	}
	go worker.collectStderr(stderr)
	return worker, nil
}

// collectStderr gathers each command's error output and hands it over
// once the per-command marker arrives. The channel closes on process
// exit.
func (w *Worker) collectStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == stderrMarker {
			w.stderr <- strings.Join(lines, "\n")
			lines = nil
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	close(w.stderr)
}

// Execute runs one exiftool command (the given argument list) and
// blocks until the process reports it is ready for the next one.
func (w *Worker) Execute(args ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var cmdBuf strings.Builder
	for _, arg := range args {
		cmdBuf.WriteString(arg)
		cmdBuf.WriteString("\n")
	}
	cmdBuf.WriteString("-echo4\n")
	cmdBuf.WriteString(stderrMarker + "\n")
	cmdBuf.WriteString("-execute\n")

	if _, err := io.WriteString(w.stdin, cmdBuf.String()); err != nil {
		return fmt.Errorf("failed to send exiftool command: %w", err)
	}

	for {
		line, err := w.stdout.ReadString('\n')
		if err != nil {
			return fmt.Errorf("exiftool terminated unexpectedly: %w", err)
		}
		if strings.HasPrefix(strings.TrimSpace(line), readyMarker) {
			break
		}
	}

	msg, ok := <-w.stderr
	if !ok {
		return fmt.Errorf("exiftool closed stderr mid-command")
	}
	if msg != "" {
		return fmt.Errorf("exiftool: %s", msg)
	}
	return nil
}

// Close asks the process to exit and waits for it. Safe to call after
// a failed Execute.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	io.WriteString(w.stdin, "-stay_open\nFalse\n")
	w.stdin.Close()
	return w.cmd.Wait()
}
