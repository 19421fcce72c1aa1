package util

import (
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/data-dot-all/dataall-core/sdk/profile"
)

// SetProxy routes client through the profile's proxy URL when one is set.
// http, https, and socks5 proxy schemes are supported. An unparseable
// proxy URL leaves the client untouched.
func SetProxy(p *profile.Profile, client *http.Client) *http.Client {
	if p == nil || p.ProxyURL == "" {
		return client
	}
	proxyURL, err := url.Parse(p.ProxyURL)
	if err != nil {
		log.Warnf("invalid proxy_url %q: %v", p.ProxyURL, err)
		return client
	}
	client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	log.Debugf("requests for profile %q go through proxy %s", p.ProfileName, proxyURL.Redacted())
	return client
}
