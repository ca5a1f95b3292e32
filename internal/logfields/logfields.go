// Package logfields provides canonical log field names and helpers for structured logging.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
// These are used for structured logging with slog.
const (
	KeyTaskID      = "task_id"
	KeyTaskKind    = "task_kind"
	KeyState       = "state"
	KeyStage       = "stage"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyHost        = "host"
	KeyPort        = "port"
	KeyIP          = "ip"
	KeyError       = "error"
	KeyPath        = "path"
	KeyWorker      = "worker"
	KeyMethod      = "method"
	KeyRemoteAddr  = "remote_addr"
	KeyStatus      = "status"
	KeyName        = "name"
	KeyURL         = "url"
	KeyCategory    = "category"
	KeyCode        = "code"
)

// TaskID returns a slog.Attr for the task ID field.
func TaskID(id string) slog.Attr { return slog.String(KeyTaskID, id) }

// TaskKind returns a slog.Attr for the task kind field.
func TaskKind(k string) slog.Attr { return slog.String(KeyTaskKind, k) }

// State returns a slog.Attr for the task state field.
func State(s string) slog.Attr { return slog.String(KeyState, s) }

// Stage returns a slog.Attr for stage name.
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }

// Attempt returns a slog.Attr for retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// DurationMS returns a slog.Attr for duration in ms.
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Host returns a slog.Attr for a host name.
func Host(h string) slog.Attr { return slog.String(KeyHost, h) }

// Port returns a slog.Attr for a TCP port.
func Port(p int) slog.Attr { return slog.Int(KeyPort, p) }

// IP returns a slog.Attr for an IP address.
func IP(ip string) slog.Attr { return slog.String(KeyIP, ip) }

// Path returns a slog.Attr for a file path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Worker returns a slog.Attr for a worker ID.
func Worker(id string) slog.Attr { return slog.String(KeyWorker, id) }

// Method returns a slog.Attr for an HTTP method.
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }

// RemoteAddr returns a slog.Attr for a remote address.
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemoteAddr, a) }

// Status returns a slog.Attr for an HTTP status code.
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// Name returns a slog.Attr for a generic name field.
func Name(n string) slog.Attr { return slog.String(KeyName, n) }

// URL returns a slog.Attr for a URL field.
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }

// Category returns a slog.Attr for an error category.
func Category(c string) slog.Attr { return slog.String(KeyCategory, c) }

// Code returns a slog.Attr for a short error code.
func Code(c string) slog.Attr { return slog.String(KeyCode, c) }

// Error returns a slog.Attr for an error, or an empty string if nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
