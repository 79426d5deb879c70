// Package log provides the logging abstraction used by the npss reader and CLI.
//
// The core packages log through the Logger interface so that embedding
// applications can plug in their own logging. A zerolog adapter and a no-op
// logger are provided.
//
//	logger, err := log.New(os.Stderr, "info", "auto")
//	if err != nil {
//	    return err
//	}
//	snap, err := npss.Open(path, npss.WithLogger(logger))
//
// Format "auto" writes human readable console output when the destination
// is a terminal and JSON lines otherwise.
package log
