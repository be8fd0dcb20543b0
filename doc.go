// Package serial reads delimiter-terminated lines from a serial device into
// a fixed buffer, one byte at a time.
//
// It targets small line protocols spoken by microcontroller firmware, where
// each value is a short ASCII token followed by a single delimiter byte
// (a space by default), e.g. "C " or "440 ".
//
// Features:
//   - LineReader: fixed-capacity buffer, single-byte delimiter, blocking reads
//   - Buffer-full detection reported as a false / -1 / NUL sentinel
//   - Character and C atoi style integer accessors
//   - Context-aware reads for callers that cannot block forever
//   - Raw syscall-based Port on Linux, killable through Close
//   - UART source for TinyGo boards (build tag baremetal)
//   - Busy indicator driven around every wait (GPIO pin or DTR/RTS line)
//   - PTY-based tests
//
// Example usage:
//
//	cfg := serial.DefaultConfig()
//	cfg.Device = "/dev/ttyUSB0"
//	port, err := serial.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	reader := port.LineReader()
//	switch reader.ReadChar() {
//	case 'C':
//	    if n := reader.ReadInt(); n >= 0 {
//	        fmt.Println("value:", n)
//	    }
//	case 0:
//	    log.Println("line did not fit the buffer")
//	}
//
//	// ... Close from another goroutine unblocks a pending read
package serial
