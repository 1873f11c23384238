package main

import (
	"crypto/tls"

	"github.com/spf13/pflag"

	"github.com/goburrow/quic/transport"
)

// newConfig returns a Config with the transport defaults and a minimal TLS
// setup shared by both client and server commands; callers fill in
// certificates, server name, or InsecureSkipVerify as needed.
func newConfig() *transport.Config {
	config := transport.NewConfig()
	config.TLS = &transport.TLSConfig{
		Config: &tls.Config{
			NextProtos: []string{transport.ALPNQuic},
		},
	}
	return config
}

// addStreamLimitFlags registers the transport-parameter flags shared by both
// subcommands, since any useful hq-11 exchange needs at least one
// peer-granted stream to talk on.
func addStreamLimitFlags(flags *pflag.FlagSet, config *transport.Config) {
	flags.Uint64Var(&config.Params.InitialMaxStreamsBidi, "max-streams-bidi", 100, "peer-granted bidirectional stream limit")
	flags.Uint64Var(&config.Params.InitialMaxStreamsUni, "max-streams-uni", 100, "peer-granted unidirectional stream limit")
}
