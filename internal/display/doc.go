// Package display formats user-facing terminal messages that are not log lines.
//
// Warnings are written to an io.Writer and colored only when the caller says
// the destination is a terminal:
//
//	if w := display.ConfigWarning(path, cfg.Warnings); w != nil {
//	    w.Display(os.Stderr, logger.IsTerminal(os.Stderr))
//	}
package display
