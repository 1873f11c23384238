package main

import (
	"crypto/rand"
	"crypto/tls"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/goburrow/quic"
	"github.com/goburrow/quic/transport"
)

func loadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(certFile, keyFile)
}

// newListenKeys generates fresh server secrets. A long-running deployment
// would persist these across restarts instead; this CLI is illustrative.
func newListenKeys() (*transport.ListenKeys, error) {
	keys := &transport.ListenKeys{}
	if _, err := rand.Read(keys.Cookie[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(keys.Reset[:]); err != nil {
		return nil, err
	}
	return keys, nil
}

func newServerCommand() *cobra.Command {
	var (
		listenAddr string
		certFile   string
		keyFile    string
		logLevel   int
	)
	config := newConfig()
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Accept QUIC connections and echo received stream data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := newListenKeys()
			if err != nil {
				return err
			}
			config.ListenKeys = keys
			cert, err := loadCertificate(certFile, keyFile)
			if err != nil {
				return err
			}
			config.TLS.Certificates = []tls.Certificate{cert}

			server := quic.NewServer(config)
			server.SetHandler(&serverHandler{})
			server.SetLogger(logLevel, os.Stdout)
			if err := server.ListenAndServe(listenAddr); err != nil {
				return err
			}
			log.Printf("listening on %s", listenAddr)
			select {}
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&listenAddr, "listen", "0.0.0.0:4433", "listen on the given IP:port")
	flags.StringVar(&certFile, "cert", "", "TLS certificate file (PEM)")
	flags.StringVar(&keyFile, "key", "", "TLS private key file (PEM)")
	flags.IntVar(&logLevel, "v", 2, "log verbose: 0=off 1=error 2=info 3=debug 4=trace")
	addStreamLimitFlags(flags, config)
	return cmd
}

type serverHandler struct{}

func (s *serverHandler) Serve(c quic.Conn, events []transport.Event) {
	for _, e := range events {
		log.Printf("%s connection event: %v", c.RemoteAddr(), e.Type)
		switch e.Type {
		case transport.EventStream:
			st := c.Stream(e.StreamID)
			if st == nil {
				continue
			}
			buf := make([]byte, 512)
			n, _ := st.Read(buf)
			if n > 0 {
				log.Printf("stream %d received:\n%s", e.StreamID, buf[:n])
				_, _ = st.Write(buf[:n])
				_ = st.Close()
			}
		}
	}
}
