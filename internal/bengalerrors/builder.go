package bengalerrors

// Builder provides the fluent construction API every call site in this
// module uses to produce a *ClassifiedError, generalizing the teacher's
// category-only ErrorBuilder into the richer code/phase/suggestion/debug
// shape spec §4.12 requires.
type Builder struct {
	code       Code
	severity   Severity
	message    string
	path       string
	line       int
	suggestion string
	cause      error
	phase      Phase
	related    []RelatedFile
	debug      *DebugPayload
	context    Context
}

// New starts a builder for code with the given message. Default severity
// is SeverityError, matching the teacher's default.
func New(code Code, message string) *Builder {
	return &Builder{code: code, severity: SeverityError, message: message}
}

func (b *Builder) WithSeverity(s Severity) *Builder { b.severity = s; return b }
func (b *Builder) Fatal() *Builder                  { return b.WithSeverity(SeverityFatal) }
func (b *Builder) Warning() *Builder                { return b.WithSeverity(SeverityWarning) }
func (b *Builder) Hint() *Builder                    { return b.WithSeverity(SeverityHint) }

func (b *Builder) WithCause(err error) *Builder { b.cause = err; return b }
func (b *Builder) WithPath(path string, line int) *Builder {
	b.path = path
	b.line = line
	return b
}
func (b *Builder) WithSuggestion(s string) *Builder { b.suggestion = s; return b }
func (b *Builder) WithPhase(p Phase) *Builder        { b.phase = p; return b }
func (b *Builder) WithRelated(r ...RelatedFile) *Builder {
	b.related = append(b.related, r...)
	return b
}
func (b *Builder) WithDebug(d *DebugPayload) *Builder { b.debug = d; return b }
func (b *Builder) WithContext(key string, value any) *Builder {
	b.context = b.context.set(key, value)
	return b
}
func (b *Builder) WithContextMap(ctx Context) *Builder {
	b.context = b.context.merge(ctx)
	return b
}

// Build produces the immutable *ClassifiedError.
func (b *Builder) Build() *ClassifiedError {
	return &ClassifiedError{
		code:       b.code,
		severity:   b.severity,
		message:    b.message,
		path:       b.path,
		line:       b.line,
		suggestion: b.suggestion,
		cause:      b.cause,
		phase:      b.phase,
		related:    b.related,
		debug:      b.debug,
		context:    b.context,
	}
}

// Convenience constructors, one per recurring call-site shape. Each
// returns a *Builder so callers can chain further .With*() calls before
// .Build().

func ConfigError(message string) *Builder {
	return New(ConfigInvalidValue, message).Fatal()
}

func ValidationError(message string) *Builder {
	return New(ConfigInvalidValue, message).Fatal().WithPhase("validate")
}

func DiscoveryError(message string) *Builder {
	return New(ContentDirNotFound, message).Fatal().WithPhase("discover")
}

func RenderError(message string) *Builder {
	return New(RenderOutputError, message).WithPhase("render")
}

func TemplateError(code Code, message string) *Builder {
	return New(code, message).WithPhase("render")
}

func CacheError(message string) *Builder {
	return New(CodeCacheReadError, message).Warning().WithPhase("cache")
}

// CacheCorruption builds the A001 error Load returns when a decoded cache
// payload is unreadable or not the expected shape.
func CacheCorruption(path string, cause error) *ClassifiedError {
	return New(CodeCacheCorruption, "cache file is corrupt").
		WithPath(path, 0).WithCause(cause).Warning().WithPhase("cache").Build()
}

// CacheVersionMismatch builds the A002 error Load returns when the magic
// header doesn't match this binary's format/runtime stamp.
func CacheVersionMismatch(path string) *ClassifiedError {
	return New(CodeCacheVersionMismatch, "cache was written by an incompatible version").
		WithPath(path, 0).Warning().WithPhase("cache").Build()
}

func BuildError(message string) *Builder {
	return New(InternalErrorCode, message).Fatal().WithPhase("build")
}

func Internal(message string) *Builder {
	return New(InternalErrorCode, message).Fatal()
}
