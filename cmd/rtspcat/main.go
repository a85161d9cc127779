// Command rtspcat connects to an RTSP server, plays its video track, and
// writes the resulting H.264 Annex-B elementary stream to a file or
// stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/tidecam/rtspcat/pkg/rtspclient"
)

func main() {
	var (
		transport = pflag.StringP("transport", "t", "tcp", "media transport: tcp or udp")
		output    = pflag.StringP("output", "o", "-", "output file for the Annex-B stream (- for stdout)")
		verbose   = pflag.BoolP("verbose", "v", false, "enable debug-level logging")
	)
	pflag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rtspcat [flags] rtsp://host:port/path")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	url := pflag.Arg(0)

	protocol := rtspclient.ProtocolTCP
	if *transport == "udp" {
		protocol = rtspclient.ProtocolUDP
	}

	out := io.Writer(os.Stdout)
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("path", *output).Msg("unable to create output file")
		}
		defer f.Close()
		out = f
	}

	connID := uuid.New().String()
	connLog := log.With().Str("conn_id", connID).Str("transport", protocol.String()).Logger()

	client, err := rtspclient.New(protocol, url, rtspclient.ClientConf{})
	if err != nil {
		connLog.Fatal().Err(err).Msg("unable to construct client")
	}

	connLog.Info().Str("url", url).Msg("connecting")
	if err := client.Connect(); err != nil {
		connLog.Error().Err(err).Msg("connect failed")
		os.Exit(1)
	}
	defer client.Disconnect()

	connLog.Info().Msg("playing")

	var frameCount, byteCount uint64
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			connLog.Info().Err(err).Uint64("frames", frameCount).Uint64("bytes", byteCount).Msg("stream ended")
			return
		}

		n, err := out.Write(frame.Data)
		if err != nil {
			connLog.Fatal().Err(err).Msg("write failed")
		}

		frameCount++
		byteCount += uint64(n)
		connLog.Debug().
			Int("len", n).
			Int("extension_words", len(frame.Extension)).
			Msg("wrote fragment")

		if invalid := client.InvalidRTCPCount(); invalid > 0 {
			connLog.Debug().Uint64("invalid_rtcp", invalid).Msg("malformed RTCP seen")
		}
	}
}
