package domain

// Status — статус результата обработки task.
//
// limit выделен из error: «повторите позже» против «так не сработает никогда».
type Status string

const (
	// StatusSuccess — task выполнен.
	StatusSuccess Status = "success"

	// StatusWarning — task выполнен с предупреждениями.
	StatusWarning Status = "warning"

	// StatusError — task не выполнен.
	StatusError Status = "error"

	// StatusLimit — task отклонён rate limit'ом.
	StatusLimit Status = "limit"
)

// IsValid проверяет, что статус входит в допустимое множество.
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusError, StatusLimit:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление Status.
func (s Status) String() string {
	return string(s)
}

// ConnState — состояние соединения воркера с Hub.
//
// Жизненный цикл:
//
//	DISCONNECTED → CONNECTING → CONNECTED → POLLING ⇄ PROCESSING
//	                    ↑                      │
//	                    └──── (канал сломан) ──┘
type ConnState int32

const (
	ConnStateDisconnected ConnState = iota
	ConnStateConnecting
	ConnStateConnected
	ConnStatePolling
	ConnStateProcessing
)

// String возвращает имя состояния.
func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "DISCONNECTED"
	case ConnStateConnecting:
		return "CONNECTING"
	case ConnStateConnected:
		return "CONNECTED"
	case ConnStatePolling:
		return "POLLING"
	case ConnStateProcessing:
		return "PROCESSING"
	default:
		return "UNKNOWN"
	}
}

// IsOnline возвращает true, если соединение с Hub установлено.
func (s ConnState) IsOnline() bool {
	return s == ConnStateConnected || s == ConnStatePolling || s == ConnStateProcessing
}
