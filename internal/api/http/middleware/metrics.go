package middleware

import (
	"net/http"
	"time"
)

type RequestObserver interface {
	ObserveRequest(route string, code int, d time.Duration)
}

// Instrument reports every request to the observer, labelled by route pattern.
type Instrument struct {
	observer RequestObserver
}

func NewInstrument(observer RequestObserver) *Instrument {
	return &Instrument{observer: observer}
}

func (m *Instrument) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		m.observer.ObserveRequest(routeOf(r), rec.status, time.Since(start))
	})
}
