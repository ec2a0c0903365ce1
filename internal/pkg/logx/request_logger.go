/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP middleware used by the status API to log request URI, method,
route, response status and latency. Remote addresses are anonymized before they are logged.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// quietPaths are scraped or polled often and are only logged on failure.
var quietPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

// anonymizeIP zeroes the last octet of an IPv4 address and the lower 64 bits of an IPv6 address.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String()
	}

	masked := make(net.IP, net.IPv6len)
	copy(masked, ip.To16()[:8])
	return masked.String()
}

// RequestLogger returns a middleware that logs every status API request and stores a
// request-scoped logger in the request context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Component("status-api")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			_, quiet := quietPaths[r.URL.Path]

			level := zerolog.InfoLevel
			switch {
			case status >= 500:
				level = zerolog.ErrorLevel
			case status >= 400:
				level = zerolog.WarnLevel
			case quiet:
				return
			case r.Method == http.MethodGet:
				level = zerolog.DebugLevel
			}

			// handlers may have added fields to the context logger, e.g. the token operator
			logEvent := zerolog.Ctx(r.Context()).WithLevel(level)

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				logEvent = logEvent.Str("route", rctx.RoutePattern())
			}

			logEvent.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}
