package main

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/treebridge/pkg/vdom"
)

// maxFireBody bounds the JSON event value accepted by /fire.
const maxFireBody = 1 << 20

// connection reports whether the producer is still attached.
type connection interface {
	Done() <-chan struct{}
}

func newServer(reg *prometheus.Registry, v *viewer, conn connection) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-conn.Done():
			http.Error(w, "producer disconnected", http.StatusServiceUnavailable)
		default:
			io.WriteString(w, "ok\n")
		}
	})

	r.Get("/view", func(w http.ResponseWriter, r *http.Request) {
		html, err := v.html()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, html)
	})

	r.Post("/fire/{hid}/{event}", func(w http.ResponseWriter, r *http.Request) {
		var value any
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFireBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &value); err != nil {
				http.Error(w, "body must be a JSON value", http.StatusBadRequest)
				return
			}
		}

		err = v.host.Fire(chi.URLParam(r, "hid"), chi.URLParam(r, "event"), value)
		switch {
		case stderrors.Is(err, vdom.ErrUnknownHID), stderrors.Is(err, vdom.ErrNoHandler):
			http.Error(w, err.Error(), http.StatusNotFound)
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	return r
}
