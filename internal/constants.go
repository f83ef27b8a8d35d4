package internal

const (
	// DefaultInclude selects the compressed log files to rewrite.
	DefaultInclude = "**/*.gz"

	// ScratchSuffix marks in-flight rewrite output. It must never match DefaultInclude.
	ScratchSuffix = ".sieve-tmp"

	// LogFileSuffix is appended to the timestamp of a run's log file.
	LogFileSuffix = "-sieve.log"

	// LogFileTimeFormat names log files, e.g. 2024-05-01-13-45-10-sieve.log.
	LogFileTimeFormat = "2006-01-02-15-04-05"

	// DefaultLocale is used for number formatting when none or an invalid one is given.
	DefaultLocale = "en"

	// DefaultBufferSize sizes the buffered readers and writers around each file.
	DefaultBufferSize = 64 * 1024
)
