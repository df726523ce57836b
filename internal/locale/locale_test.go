package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDomainOverridesSession(t *testing.T) {
	r := NewResolver(map[string]string{"example.com": "pl"}, []string{"en", "pl"})

	assert.Equal(t, "pl", r.Resolve(Request{Host: "example.com", SessionLanguage: "en", AcceptLanguage: "en"}))
	assert.Equal(t, "pl", r.Resolve(Request{Host: "Example.com:8080", SessionLanguage: "en"}), "port stripped")
}

func TestResolveFallsBackToAcceptLanguage(t *testing.T) {
	r := NewResolver(nil, []string{"pl", "en"})

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{name: "weighted list", req: Request{AcceptLanguage: "de,en;q=0.8"}, want: "en"},
		{name: "session wins over header", req: Request{SessionLanguage: "pl", AcceptLanguage: "en"}, want: "pl"},
		{name: "regional variant", req: Request{AcceptLanguage: "pl-PL,pl;q=0.9"}, want: "pl"},
		{name: "unsupported session ignored", req: Request{SessionLanguage: "fr", AcceptLanguage: "pl"}, want: "pl"},
		{name: "nothing matches", req: Request{AcceptLanguage: "de"}, want: DefaultLanguage},
		{name: "empty request", req: Request{}, want: DefaultLanguage},
		{name: "malformed header", req: Request{AcceptLanguage: ";;;"}, want: DefaultLanguage},
		{name: "unmapped host", req: Request{Host: "other.org", AcceptLanguage: "pl"}, want: "pl"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Resolve(tc.req))
		})
	}
}

func TestResolveWithoutConfiguredLanguages(t *testing.T) {
	r := NewResolver(nil, nil)

	assert.Equal(t, DefaultLanguage, r.Resolve(Request{AcceptLanguage: "pl"}))
	assert.Equal(t, "de", r.Resolve(Request{SessionLanguage: "de"}), "session language kept")
}

func TestCodesAreSorted(t *testing.T) {
	r := NewResolver(nil, []string{"pl", "en", "de", "en"})
	assert.Equal(t, []string{"de", "en", "pl"}, r.Codes())
}
