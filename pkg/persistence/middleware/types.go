package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a SessionLog to add behavior.
type Middleware func(ports.SessionLog) ports.SessionLog

// Chain wraps log with mws. The first middleware is the outermost, so it
// sees entries first on Append and last on Entries.
func Chain(log ports.SessionLog, mws ...Middleware) ports.SessionLog {
	for i := len(mws) - 1; i >= 0; i-- {
		log = mws[i](log)
	}
	return log
}
