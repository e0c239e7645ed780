package domain

import "fmt"

// StreamID identifies one monitored output stream of the child process.
type StreamID string

const (
	StreamStdout StreamID = "stdout"
	StreamStderr StreamID = "stderr"
	// StreamStdin is the single monitored stream in pipe/filter mode.
	StreamStdin StreamID = "stdin"
)

// StreamFD returns the StreamID for an extra file descriptor (fd >= 3).
func StreamFD(fd int) StreamID {
	return StreamID(fmt.Sprintf("fd:%d", fd))
}

// Priority orders streams for match arbitration when two matches carry the
// same timestamp: stdout before stderr before extra descriptors, extra
// descriptors by ascending fd number.
func (s StreamID) Priority() int {
	switch s {
	case StreamStdout, StreamStdin:
		return 0
	case StreamStderr:
		return 1
	}
	var fd int
	if _, err := fmt.Sscanf(string(s), "fd:%d", &fd); err == nil {
		return fd
	}
	return 1 << 20
}
