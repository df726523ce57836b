package locale

import (
	"net"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when nothing else identifies the request language.
const DefaultLanguage = "en"

// Request carries the inputs of one resolution.
type Request struct {
	Host            string
	SessionLanguage string
	AcceptLanguage  string
}

// Resolver picks the content language of a request. Precedence is the domain
// mapping, then the session, then the best Accept-Language match, then "en".
type Resolver struct {
	domains map[string]string
	codes   []string
	matcher language.Matcher
}

// NewResolver builds a resolver over the configured language codes.
func NewResolver(domainToLang map[string]string, codes []string) *Resolver {
	sorted := slices.Clone(codes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	domains := make(map[string]string, len(domainToLang))
	for host, lang := range domainToLang {
		domains[strings.ToLower(host)] = lang
	}

	r := &Resolver{domains: domains, codes: sorted}
	if len(sorted) > 0 {
		tags := make([]language.Tag, 0, len(sorted))
		for _, code := range sorted {
			tags = append(tags, language.Make(code))
		}
		r.matcher = language.NewMatcher(tags)
	}
	return r
}

// Resolve returns the language for req.
func (r *Resolver) Resolve(req Request) string {
	if lang, ok := r.FromDomain(req.Host); ok {
		return lang
	}
	if r.Supported(req.SessionLanguage) {
		return req.SessionLanguage
	}
	if lang, ok := r.BestMatch(req.AcceptLanguage); ok {
		return lang
	}
	return DefaultLanguage
}

// FromDomain looks the host up in the domain mapping, first as given and
// then without its port.
func (r *Resolver) FromDomain(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "", false
	}
	if lang, ok := r.domains[host]; ok {
		return lang, true
	}
	if hostname, _, err := net.SplitHostPort(host); err == nil {
		if lang, ok := r.domains[hostname]; ok {
			return lang, true
		}
	}
	return "", false
}

// Supported reports whether lang may be served. With no configured
// languages any non-empty code is accepted.
func (r *Resolver) Supported(lang string) bool {
	if lang == "" {
		return false
	}
	if len(r.codes) == 0 {
		return true
	}
	_, found := slices.BinarySearch(r.codes, lang)
	return found
}

// BestMatch matches an Accept-Language header against the configured codes.
func (r *Resolver) BestMatch(header string) (string, bool) {
	if r.matcher == nil || strings.TrimSpace(header) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, index, confidence := r.matcher.Match(tags...)
	if confidence <= language.Low {
		return "", false
	}
	return r.codes[index], true
}

// Codes returns the configured language codes in sorted order.
func (r *Resolver) Codes() []string {
	return slices.Clone(r.codes)
}
