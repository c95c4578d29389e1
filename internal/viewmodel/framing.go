package viewmodel

// EmptyContext selects which flavor of empty-state text a bucket shows.
// It changes nothing but copy: a bucket that just lost its last item to an
// auto-removal reads differently from one that was empty on startup.
type EmptyContext string

const (
	// EmptyGeneral is the everyday empty-list text.
	EmptyGeneral EmptyContext = "general"
	// EmptyOnInit is used for the first snapshot after a surface reports ready.
	EmptyOnInit EmptyContext = "on-init"
	// EmptyAfterCompletion is used when an auto-removal emptied the bucket.
	EmptyAfterCompletion EmptyContext = "after-completion"
)

// Framing carries the empty-context choices for one snapshot build.
// Buckets overrides per bucket key; Default applies to everything else.
// The zero value means EmptyGeneral everywhere.
type Framing struct {
	Default EmptyContext
	Buckets map[string]EmptyContext
}

// For resolves the context for a bucket key.
func (f Framing) For(key string) EmptyContext {
	if ctx, ok := f.Buckets[key]; ok {
		return ctx
	}
	if f.Default != "" {
		return f.Default
	}
	return EmptyGeneral
}
