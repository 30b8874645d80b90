package dnd5e

import (
	"net/http"
	"strings"
)

// DefaultBaseURL is the endpoint the dnd5e-api library has compiled in
const DefaultBaseURL = "https://www.dnd5eapi.co/api"

// rebasedClient points the library's hard-coded endpoint at another host, a mirror or a
// local copy of the SRD API
type rebasedClient struct {
	client *http.Client
	base   string
}

func (c *rebasedClient) Get(url string) (*http.Response, error) {
	if rest, ok := strings.CutPrefix(url, DefaultBaseURL); ok {
		url = c.base + rest
	}
	return c.client.Get(url)
}

// httpGetter picks the getter handed to the library, nil client means http.DefaultClient
func httpGetter(client *http.Client, baseURL string) *rebasedClient {
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &rebasedClient{client: client, base: base}
}
