package main

import (
	"net/http"
	"sync/atomic"
	"time"
)

// flaky cycles through the failure shapes the service must absorb, serving a
// normal response every fifth request.
type flaky struct {
	n    atomic.Uint64
	hang time.Duration
}

func (f *flaky) serve(ok http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch f.n.Add(1) % 5 {
		case 1:
			http.Error(w, `{"message":"Too many requests"}`, http.StatusTooManyRequests)
		case 2:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result": [{"hotel_name": "Trunc`))
		case 3:
			writeJSON(w, http.StatusOK, map[string]any{"result": "unavailable", "data": "unavailable"})
		case 4:
			hang := f.hang
			if hang == 0 {
				hang = 20 * time.Second
			}
			select {
			case <-time.After(hang):
				writeJSON(w, http.StatusOK, map[string]any{"result": []any{}, "data": []any{}})
			case <-r.Context().Done():
			}
		default:
			ok(w, r)
		}
	}
}
