//go:build windows

package rtspclient

import "syscall"

func setReuseAddrAndBuffer(fd uintptr, rcvBuf int) error {
	handle := syscall.Handle(fd)
	if err := syscall.SetsockoptInt(handle, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return syscall.SetsockoptInt(handle, syscall.SOL_SOCKET, syscall.SO_RCVBUF, rcvBuf)
}
