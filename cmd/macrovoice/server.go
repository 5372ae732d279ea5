package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// serveControl runs a small HTTP API against a live synth: read and
// write parameters, select presets, and trigger notes. Intended for
// local experimentation, not exposure.
func serveControl(addr string, s *synth) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/params/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		value, ok := s.GetParam(key)
		if !ok {
			http.Error(w, "unknown parameter", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"key": key, "value": value})
	})

	r.Put("/params/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		s.SetParam(key, string(body))
		value, _ := s.GetParam(key)
		logger.Info("param set", slog.String("key", key), slog.String("value", value))
		writeJSON(w, map[string]string{"key": key, "value": value})
	})

	r.Get("/state", func(w http.ResponseWriter, req *http.Request) {
		state, _ := s.GetParam("state")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, state)
	})

	r.Get("/chain_params", func(w http.ResponseWriter, req *http.Request) {
		meta, _ := s.GetParam("chain_params")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, meta)
	})

	r.Post("/preset/{index}", func(w http.ResponseWriter, req *http.Request) {
		idx := chi.URLParam(req, "index")
		s.SetParam("preset", idx)
		name, _ := s.GetParam("preset_name")
		logger.Info("preset selected", slog.String("index", idx), slog.String("name", name))
		writeJSON(w, map[string]string{"preset": idx, "name": name})
	})

	r.Post("/note/{note}/on", func(w http.ResponseWriter, req *http.Request) {
		note, ok := parseNoteParam(w, req)
		if !ok {
			return
		}
		velocity := 100
		if v := req.URL.Query().Get("velocity"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 127 {
				velocity = n
			}
		}
		s.OnMidi([]byte{0x90, byte(note), byte(velocity)})
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/note/{note}/off", func(w http.ResponseWriter, req *http.Request) {
		note, ok := parseNoteParam(w, req)
		if !ok {
			return
		}
		s.OnMidi([]byte{0x80, byte(note), 0})
		w.WriteHeader(http.StatusNoContent)
	})

	logger.Info("control server starting", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("control server stopped", slog.Any("error", err))
	}
}

func parseNoteParam(w http.ResponseWriter, req *http.Request) (int, bool) {
	note, err := strconv.Atoi(chi.URLParam(req, "note"))
	if err != nil || note < 0 || note > 127 {
		http.Error(w, "note must be 0-127", http.StatusBadRequest)
		return 0, false
	}
	return note, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
