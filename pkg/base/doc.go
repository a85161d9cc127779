// Package base contains the wire-level building blocks of RTSP 1.0: URLs,
// headers, requests, responses and interleaved binary frames.
package base
