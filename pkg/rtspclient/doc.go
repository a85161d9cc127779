// Package rtspclient implements an RTSP control client (OPTIONS, DESCRIBE,
// SETUP, PLAY) coupled to the transport adapters that turn either a
// TCP-interleaved or a UDP media session into a stream of Annex-B H.264
// access-unit fragments, delivered through a bounded frame queue.
package rtspclient
