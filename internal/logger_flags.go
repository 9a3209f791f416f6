// CLI flag wiring for logger config: logrusx registers its own flag set in
// init() and an embedding application applies the parsed values onto a
// LoggerConfig just before SetLogger is called.

package eventsched_internal

import "github.com/bgp59/logrusx"

func init() {
	logrusx.EnableLoggerArgs()
}

// ApplyLoggerFlags overlays command-line-supplied logger settings (log
// level, log file, etc, as registered by logrusx.EnableLoggerArgs) onto
// logCfg. Call after flag.Parse() and before SetLogger.
func ApplyLoggerFlags(logCfg *LoggerConfig) {
	logrusx.ApplySetLoggerArgs(logCfg)
}
