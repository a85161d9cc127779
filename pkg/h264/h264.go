// Package h264 contains utilities to work with the H264 codec.
package h264
