package starcitygames

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// tokenTTL bounds how long a scraped storefront token is reused. The site
// rotates them well beyond an hour, so an hour keeps us comfortably fresh.
const tokenTTL = time.Hour

// tokenCache is the one piece of state that outlives a single search: the
// storefront API bearer token scraped from the homepage. It is read-mostly;
// two goroutines refreshing at once just costs a redundant page fetch, so
// refreshes are deliberately not serialized.
type tokenCache struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
}

func (c *tokenCache) get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || time.Now().After(c.expires) {
		return "", false
	}
	return c.token, true
}

func (c *tokenCache) set(token string, ttl time.Duration) {
	c.mu.Lock()
	c.token = token
	c.expires = time.Now().Add(ttl)
	c.mu.Unlock()
}

// The token is embedded in the homepage markup; both the named config key
// and a bare JWT-shaped "token" field have been observed.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`storefrontApiToken["']?\s*[:=]\s*["']([A-Za-z0-9._\-]+)["']`),
	regexp.MustCompile(`"token"\s*:\s*"(eyJ[A-Za-z0-9._\-]+)"`),
}

// bearerToken returns a cached token or scrapes a fresh one from the
// homepage.
func (a *Adapter) bearerToken(ctx context.Context) (string, error) {
	if tok, ok := a.tokens.get(); ok {
		return tok, nil
	}

	body, err := a.client.GetHTML(ctx, a.base+"/")
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}

	for _, re := range tokenPatterns {
		if m := re.FindSubmatch(body); m != nil {
			tok := string(m[1])
			a.tokens.set(tok, tokenTTL)
			return tok, nil
		}
	}
	return "", fmt.Errorf("fetch token: no storefront token in homepage")
}
