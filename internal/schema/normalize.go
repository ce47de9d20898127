package schema

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms the raw values a selector produced.
// A nil Normalizer is the identity transform.
type Normalizer func(values []string) ([]string, error)

// Apply runs n on values. A nil n returns values unchanged.
func (n Normalizer) Apply(values []string) ([]string, error) {
	if n == nil {
		return values, nil
	}
	return n(values)
}

// Chain composes normalizers left to right. Nil entries are skipped.
// Chain of nothing is nil, the identity.
func Chain(normalizers ...Normalizer) Normalizer {
	steps := make([]Normalizer, 0, len(normalizers))
	for _, n := range normalizers {
		if n != nil {
			steps = append(steps, n)
		}
	}
	switch len(steps) {
	case 0:
		return nil
	case 1:
		return steps[0]
	}
	return func(values []string) ([]string, error) {
		var err error
		for _, step := range steps {
			if values, err = step(values); err != nil {
				return nil, err
			}
		}
		return values, nil
	}
}

// Env is what a normalizer may depend on besides its argument.
type Env struct {
	// BaseURL is the source base address, used by resolve_url.
	BaseURL *url.URL
}

// Factory builds a Normalizer from an optional argument.
type Factory func(arg string, env Env) (Normalizer, error)

// factories maps normalizer names to their constructors.
var factories = map[string]Factory{
	"trim":           noArg(eachValue(strings.TrimSpace)),
	"collapse_space": noArg(eachValue(collapseSpace)),
	"lower":          noArg(eachValue(lower)),
	"humanize":       noArg(eachValue(humanize)),
	"title":          noArg(eachValue(title)),
	"slug":           noArg(eachValue(slugify)),
	"hms_seconds":    noArg(hmsSeconds),
	"number":         noArg(firstNumber),
	"drop_empty":     noArg(dropEmpty),
	"dedupe":         noArg(dedupe),
	"first":          noArg(keepFirst),
	"last":           noArg(keepLast),
	"resolve_url":    resolveURL,
	"regex":          regexCapture,
	"split":          split,
	"strip_prefix":   stripPrefix,
	"strip_suffix":   stripSuffix,
	"replace":        replace,
}

// Names returns the registered normalizer names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the normalizer described by spec. A spec is a registered
// name optionally followed by ":" and an argument, e.g. "strip_suffix: - Video".
// strip_prefix, strip_suffix and replace keep the argument's whitespace;
// regex and split trim it.
func Lookup(spec string, env Env) (Normalizer, error) {
	name, arg, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNormalizer, name)
	}
	n, err := factory(arg, env)
	if err != nil {
		return nil, fmt.Errorf("normalizer %q: %w", name, err)
	}
	return n, nil
}

// Compile builds one Normalizer from a list of specs applied in order.
// An empty list yields nil, the identity.
func Compile(specs []string, env Env) (Normalizer, error) {
	steps := make([]Normalizer, 0, len(specs))
	for _, spec := range specs {
		n, err := Lookup(spec, env)
		if err != nil {
			return nil, err
		}
		steps = append(steps, n)
	}
	return Chain(steps...), nil
}

func noArg(n Normalizer) Factory {
	return func(arg string, _ Env) (Normalizer, error) {
		if strings.TrimSpace(arg) != "" {
			return nil, ErrUnexpectedArgument
		}
		return n, nil
	}
}

func eachValue(fn func(string) string) Normalizer {
	return func(values []string) ([]string, error) {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = fn(v)
		}
		return out, nil
	}
}

// cases.Caser keeps state, so every call gets its own.
func lower(s string) string {
	return cases.Lower(language.English).String(s)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// humanize turns "big_red-ball" into "Big red ball".
func humanize(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = collapseSpace(lower(s))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns "Crème Brûlée!" into "creme-brulee".
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = lower(folded)
	return strings.Trim(nonSlug.ReplaceAllString(folded, "-"), "-")
}

// unknownDurations are placeholders sites print instead of a length.
var unknownDurations = map[string]bool{
	"":     true,
	"n/a":  true,
	"na":   true,
	"none": true,
	"-":    true,
}

// hmsSeconds converts "1:10:00", "1:10" or "10" into a count of seconds.
func hmsSeconds(values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		secs, err := ParseHMS(v)
		if err != nil {
			return nil, err
		}
		out[i] = strconv.Itoa(secs)
	}
	return out, nil
}

// ParseHMS converts a colon separated clock value into seconds.
// Placeholders such as "N/A" and empty strings are zero.
func ParseHMS(v string) (int, error) {
	v = strings.TrimSpace(v)
	if unknownDurations[strings.ToLower(v)] {
		return 0, nil
	}

	parts := strings.Split(v, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, v)
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || total > (math.MaxInt-n)/60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, v)
		}
		total = total*60 + n
	}
	return total, nil
}

var digits = regexp.MustCompile(`\d+`)

func firstNumber(values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		m := digits.FindString(v)
		if m == "" {
			return nil, fmt.Errorf("%w: no number in %q", ErrInvalidValue, v)
		}
		out[i] = m
	}
	return out, nil
}

func dropEmpty(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func dedupe(values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func keepFirst(values []string) ([]string, error) {
	if len(values) == 0 {
		return values, nil
	}
	return values[:1], nil
}

func keepLast(values []string) ([]string, error) {
	if len(values) == 0 {
		return values, nil
	}
	return values[len(values)-1:], nil
}

func resolveURL(arg string, env Env) (Normalizer, error) {
	if strings.TrimSpace(arg) != "" {
		return nil, ErrUnexpectedArgument
	}
	if env.BaseURL == nil {
		return nil, ErrNoBaseURL
	}
	base := env.BaseURL
	return func(values []string) ([]string, error) {
		out := make([]string, len(values))
		for i, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			ref, err := url.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			out[i] = base.ResolveReference(ref).String()
		}
		return out, nil
	}, nil
}

// regexCapture keeps the first capture group (or the whole match) of every
// value that matches; values that do not match are dropped. Surrounding
// whitespace of the pattern is ignored.
func regexCapture(arg string, _ Env) (Normalizer, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, ErrMissingArgument
	}
	re, err := regexp.Compile(arg)
	if err != nil {
		return nil, err
	}
	return func(values []string) ([]string, error) {
		out := make([]string, 0, len(values))
		for _, v := range values {
			m := re.FindStringSubmatch(v)
			switch {
			case m == nil:
				continue
			case len(m) > 1:
				out = append(out, m[1])
			default:
				out = append(out, m[0])
			}
		}
		return out, nil
	}, nil
}

// split trims its separator unless the separator is only whitespace.
func split(arg string, _ Env) (Normalizer, error) {
	if sep := strings.TrimSpace(arg); sep != "" {
		arg = sep
	}
	if arg == "" {
		return nil, ErrMissingArgument
	}
	return func(values []string) ([]string, error) {
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, strings.Split(v, arg)...)
		}
		return out, nil
	}, nil
}

func stripPrefix(arg string, _ Env) (Normalizer, error) {
	if arg == "" {
		return nil, ErrMissingArgument
	}
	return eachValue(func(s string) string { return strings.TrimPrefix(s, arg) }), nil
}

func stripSuffix(arg string, _ Env) (Normalizer, error) {
	if arg == "" {
		return nil, ErrMissingArgument
	}
	return eachValue(func(s string) string { return strings.TrimSuffix(s, arg) }), nil
}

// replace takes "old=>new".
func replace(arg string, _ Env) (Normalizer, error) {
	old, repl, ok := strings.Cut(arg, "=>")
	if !ok || old == "" {
		return nil, ErrMissingArgument
	}
	r := strings.NewReplacer(old, repl)
	return eachValue(r.Replace), nil
}
