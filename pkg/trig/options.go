package trig

import "log/slog"

const (
	// DefaultShadowPrefix names shadow namespace aliases and labels of conjectural blank nodes.
	DefaultShadowPrefix = "reserved-"
	// ConjShadowMarker is a marker for WithShadowMarker that keeps conjectural IRIs apart
	// from their settled form. By default no marker is used and a shadow namespace
	// points at the same IRI as the namespace it aliases.
	ConjShadowMarker = "conj-"
	// DefaultConjNamespace is used for conj:settles when the input does not declare a "conj" prefix.
	DefaultConjNamespace = "urn:conj:"
	// ConjPrefix is the namespace prefix looked up for the settlement predicate.
	ConjPrefix = "conj"
)

// Options configures a Parser
type Options struct {
	// BaseIRI resolves relative IRIs until the input declares its own base
	BaseIRI string

	// Enforced lists violation classes whose offending identifiers are suppressed
	// instead of being returned as best-effort values
	Enforced map[ViolationClass]bool

	// OnViolation receives every recoverable violation. When nil, violations are logged at WARN.
	OnViolation func(Violation)

	Logger *slog.Logger

	ShadowPrefix string

	// ShadowMarker is prepended to the namespace of shadow aliases and to conjectural IRIs
	ShadowMarker  string
	ConjNamespace string

	// MirrorSettlements re-emits every triple of a settlement block into the original graph
	MirrorSettlements bool

	// ScopeBlankNodes prefixes labelled blank nodes with the session id so that
	// labels from different documents never collide in a shared store
	ScopeBlankNodes bool

	// CaseInsensitiveDirectives accepts @PREFIX and @BASE in any case
	CaseInsensitiveDirectives bool
}

// Option configures parser behavior
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Enforced:      map[ViolationClass]bool{},
		Logger:        slog.Default(),
		ShadowPrefix:  DefaultShadowPrefix,
		ConjNamespace: DefaultConjNamespace,
	}
}

func WithBaseIRI(base string) Option {
	return func(o *Options) { o.BaseIRI = base }
}

// WithEnforced marks violation classes as enforced
func WithEnforced(classes ...ViolationClass) Option {
	return func(o *Options) {
		for _, c := range classes {
			o.Enforced[c] = true
		}
	}
}

func WithViolationHandler(fn func(Violation)) Option {
	return func(o *Options) { o.OnViolation = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func WithShadowPrefix(prefix string) Option {
	return func(o *Options) { o.ShadowPrefix = prefix }
}

// WithShadowMarker sets the string prepended to conjectural IRIs, for example ConjShadowMarker
// to tell conjectural graphs apart from settled ones in the output.
func WithShadowMarker(marker string) Option {
	return func(o *Options) { o.ShadowMarker = marker }
}

func WithConjNamespace(ns string) Option {
	return func(o *Options) { o.ConjNamespace = ns }
}

func WithMirrorSettlements(enabled bool) Option {
	return func(o *Options) { o.MirrorSettlements = enabled }
}

func WithScopedBlankNodes(enabled bool) Option {
	return func(o *Options) { o.ScopeBlankNodes = enabled }
}

func WithCaseInsensitiveDirectives(enabled bool) Option {
	return func(o *Options) { o.CaseInsensitiveDirectives = enabled }
}
