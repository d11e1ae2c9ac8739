package metadata

// Stream names a container output stream.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

const logFormatAnnotation = "log-format"

// DefaultLogFormat is used for a stream when no annotation applies.
const DefaultLogFormat = "default"

// LogFormats holds the resolved format directive of each stream.
type LogFormats struct {
	Stdout string
	Stderr string
}

// LogFormatKeys returns the annotation keys consulted for stream and
// container, most specific first.
func LogFormatKeys(stream Stream, container string) []string {
	s := string(stream)
	return []string{
		logFormatAnnotation + "-" + s + "-" + container,
		logFormatAnnotation + "-" + container,
		logFormatAnnotation + "-" + s,
		logFormatAnnotation,
	}
}

// ResolveLogFormat returns the format for a single stream.
func ResolveLogFormat(annotations map[string]string, stream Stream, container, defaultFormat string) string {
	for _, key := range LogFormatKeys(stream, container) {
		if v, ok := annotations[key]; ok {
			return v
		}
	}
	return defaultFormat
}

// ResolveLogFormats resolves the stdout and stderr formats of container from
// pod annotations. A nil annotation map resolves both streams to
// defaultFormat.
func ResolveLogFormats(annotations map[string]string, container, defaultFormat string) LogFormats {
	return LogFormats{
		Stderr: ResolveLogFormat(annotations, StreamStderr, container, defaultFormat),
		Stdout: ResolveLogFormat(annotations, StreamStdout, container, defaultFormat),
	}
}
