package middleware

import (
	"net/http"
	"sync/atomic"
	"time"
)

// DatastoreNotConnected содержит сообщение, которым бэкенд отвечает до готовности хранилища.
const DatastoreNotConnected = "MongoDB not connected"

// Warmup отвечает 503 до истечения периода прогрева, имитируя неподключённое хранилище.
type Warmup struct {
	readyAt time.Time
	now     func() time.Time
	ready   atomic.Bool
}

// NewWarmup создаёт Warmup с указанной длительностью прогрева от текущего момента.
func NewWarmup(period time.Duration) *Warmup {
	w := &Warmup{now: time.Now}
	w.readyAt = w.now().Add(period)
	if period <= 0 {
		w.ready.Store(true)
	}
	return w
}

// Ready сообщает, завершён ли прогрев.
func (w *Warmup) Ready() bool {
	if w.ready.Load() {
		return true
	}
	if !w.now().Before(w.readyAt) {
		w.ready.Store(true)
		return true
	}
	return false
}

// Middleware возвращает 503 для всех запросов, пока прогрев не завершён.
func (w *Warmup) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !w.Ready() {
			writeFailure(rw, http.StatusServiceUnavailable, DatastoreNotConnected)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

// Latency добавляет задержку перед обработкой каждого запроса. Отмена запроса прерывает ожидание.
func Latency(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-r.Context().Done():
				return
			case <-timer.C:
			}
			next.ServeHTTP(w, r)
		})
	}
}
