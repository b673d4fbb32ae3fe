package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// datastoreNotConnected служит признаком того, что бэкенд запущен, но ещё не подключился к хранилищу.
const datastoreNotConnected = "mongodb not connected"

// decision определяет, что делать после очередной попытки.
type decision int

const (
	decisionDone decision = iota
	decisionRetry
	decisionFailover
	decisionFail
)

func (d decision) String() string {
	switch d {
	case decisionDone:
		return "done"
	case decisionRetry:
		return "retry"
	case decisionFailover:
		return "failover"
	default:
		return "fail"
	}
}

// Reason описывает структурированную причину повтора или смены хоста.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNetwork
	ReasonMalformedBody
	ReasonDatastoreUnavailable
	ReasonGateway
)

// ClassifyStatus сопоставляет неуспешный HTTP-ответ с причиной повтора.
func ClassifyStatus(status int, message string) Reason {
	if status == http.StatusServiceUnavailable &&
		strings.Contains(strings.ToLower(message), datastoreNotConnected) {
		return ReasonDatastoreUnavailable
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ReasonGateway
	}
	return ReasonNone
}

func decide(reason Reason) decision {
	switch reason {
	case ReasonNetwork, ReasonMalformedBody, ReasonDatastoreUnavailable:
		return decisionRetry
	case ReasonGateway:
		return decisionFailover
	default:
		return decisionFail
	}
}

// backoffFor возвращает линейную задержку перед повтором: base × attempt.
func backoffFor(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// linearBackoff разрешает не более attempts попыток на один хост с задержками base, 2×base, ...
func linearBackoff(base time.Duration, attempts int) retry.Backoff {
	failures := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		failures++
		if failures >= attempts {
			return 0, true
		}
		return backoffFor(base, failures), false
	})
}
