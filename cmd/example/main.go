// Command example is a minimal demonstration server built on
// github.com/AmakeSashaDev/maker-web/pkg/server and pkg/webcore.
package main

import (
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmakeSashaDev/maker-web/pkg/server"
	"github.com/AmakeSashaDev/maker-web/pkg/webcore"
)

// requestCounter is per-connection state: a running count of requests
// served on this particular keep-alive connection, echoed back in a
// response header so curl -v against the same connection shows it climb.
type requestCounter struct {
	count int
}

func (c *requestCounter) Reset() { c.count = 0 }

func router(data *requestCounter, req *webcore.Request, resp *webcore.Response) webcore.Handled {
	data.count++

	switch {
	case req.Url().Matches():
		return resp.Status(webcore.StatusOK).
			Header("content-type", webcore.Str("text/plain")).
			Header("x-request-count", webcore.Int(int64(data.count))).
			Body(webcore.Str("hello from maker-web"))

	case req.Url().Matches("health"):
		return resp.Status(webcore.StatusOK).
			Header("content-type", webcore.Str("application/json")).
			Body(webcore.Str(`{"status":"healthy"}`))

	case req.Url().StartsWith("echo"):
		return resp.Status(webcore.StatusOK).
			Header("content-type", webcore.Str("text/plain")).
			Body(webcore.Bytes(req.Url().Path()))

	default:
		return resp.Status(webcore.StatusNotFound).Body(webcore.Str(""))
	}
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ln, err := net.Listen("tcp", ":8080")
	if err != nil {
		log.Fatal().Err(err).Msg("listen failed")
	}

	srv := server.NewServerBuilder[*requestCounter](func() *requestCounter {
		return &requestCounter{}
	}).
		Listener(ln).
		HandlerFn(server.HandlerFunc[*requestCounter](router)).
		Logger(log).
		Build()

	log.Info().Str("addr", ln.Addr().String()).Msg("starting maker-web example server")
	log.Info().Msg("try: curl http://localhost:8080/")
	log.Info().Msg("try: curl http://localhost:8080/health")
	log.Info().Msg("try: curl http://localhost:8080/echo/anything")

	if err := srv.Launch(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
