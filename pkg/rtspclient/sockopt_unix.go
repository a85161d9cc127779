//go:build !windows

package rtspclient

import "syscall"

// setReuseAddrAndBuffer sets SO_REUSEADDR and a minimum SO_RCVBUF on the
// RTP socket, adapted from the teacher's setAndVerifyReadBufferSize: a
// server restart or a quick reconnect should not leave the RTP port stuck
// in TIME_WAIT, and the kernel buffer must be large enough to absorb a
// full video burst between consumer reads (spec §4.5: "a >=1MiB receive
// buffer").
func setReuseAddrAndBuffer(fd uintptr, rcvBuf int) error {
	if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, rcvBuf)
}
