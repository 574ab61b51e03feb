package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hserve-org/hserve/hservebridge"
	"github.com/hserve-org/hserve/hservehttp"
	"github.com/hserve-org/hserve/hservewire"
)

// newHandler assembles the demo routes:
//
//	/         streamed countdown, one line per second
//	/static   the same greeting in a single write
//	/healthz  liveness probe
//	/metrics  prometheus exposition for the registry
//
// Everything except the root countdown is an ordinary net/http handler
// mounted through hservebridge.
func newHandler(logger *slog.Logger, registry *prometheus.Registry) hservehttp.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ok\r\n")
	}).Methods("GET", "HEAD")

	router.HandleFunc("/static", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "Hello world!\r\n")
	}).Methods("GET", "HEAD")

	bridged := hservebridge.Wrap(
		alice.New(routeLogging(logger)).Then(router),
	)

	return hservehttp.HandlerFunc(func(ctx context.Context, req *hservewire.Request, body *bufio.Reader) (*hservehttp.Response, error) {
		if req.Path == "/" && (req.Method == hservewire.MethodGet || req.Method == hservewire.MethodHead) {
			return &hservehttp.Response{
				Status: hservewire.StatusOK,
				Body:   newCountdown(rand.Intn(10)+1, time.Second),
			}, nil
		}

		return bridged.Serve(ctx, req, body)
	})
}

// routeLogging records which bridged route served a request.  The server's
// own access log still covers timing and status.
func routeLogging(logger *slog.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("route", "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

// countdownBody streams "N...\r\n" lines from count down to 1, pausing
// between lines, then a final greeting.  The full length is known up front
// so the response still carries a Content-Length.
type countdownBody struct {
	count   int
	delay   time.Duration
	message string
}

func newCountdown(count int, delay time.Duration) *countdownBody {
	return &countdownBody{
		count:   count,
		delay:   delay,
		message: "Hello world!",
	}
}

func (b *countdownBody) ContentLength() (int64, bool) {
	var n int64
	for i := b.count; i > 0; i-- {
		n += int64(len(fmt.Sprintf("%d...\r\n", i)))
	}

	return n + int64(len(b.message)) + 2, true
}

func (b *countdownBody) ContentType() string {
	return "text/html; charset=utf-8"
}

func (b *countdownBody) WriteTo(bw *bufio.Writer) error {
	for i := b.count; i > 0; i-- {
		if _, err := fmt.Fprintf(bw, "%d...\r\n", i); err != nil {
			return err
		}

		// flush so each line reaches the client before the pause
		if err := bw.Flush(); err != nil {
			return err
		}

		time.Sleep(b.delay)
	}

	if _, err := io.WriteString(bw, b.message+"\r\n"); err != nil {
		return err
	}

	return bw.Flush()
}
