package dropshipping

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Credentials struct {
	RapidAPIKey         string
	AliExpressURL       string
	AliExpressAppKey    string
	AliExpressAppSecret string
	AliExpressToken     string
	CJKey               string
	CJURL               string
	SerpAPIKey          string
}

// NewSources builds the configured supplier sources. "aliexpress" prefers
// the official open platform when an app key is present.
func NewSources(ctx context.Context, providers []string, creds Credentials, client *http.Client) ([]Source, error) {
	var sources []Source
	seen := make(map[string]bool)

	for _, name := range providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "aliexpress", "openservice-aliexpress":
			if name == "openservice-aliexpress" || creds.AliExpressAppKey != "" {
				if creds.AliExpressAppKey == "" || creds.AliExpressAppSecret == "" || creds.AliExpressToken == "" {
					return nil, fmt.Errorf("%s requires ALIEXPRESS_APP_KEY, ALIEXPRESS_APP_SECRET and ALIEXPRESS_ACCESS_TOKEN", name)
				}
				sources = append(sources, NewOpenServiceSource(ctx, creds.AliExpressURL, creds.AliExpressAppKey, creds.AliExpressToken))
				continue
			}
			if creds.RapidAPIKey == "" {
				return nil, fmt.Errorf("aliexpress requires RAPIDAPI_KEY")
			}
			sources = append(sources, NewAliExpressSource(creds.AliExpressURL, creds.RapidAPIKey, client))
		case "cj":
			if creds.CJKey == "" {
				return nil, fmt.Errorf("cj requires CJ_DROPSHIPPING_API_KEY")
			}
			sources = append(sources, NewCJSource(creds.CJURL, creds.CJKey, client))
		case "serpapi":
			if creds.SerpAPIKey == "" {
				return nil, fmt.Errorf("serpapi requires SERPAPI_KEY")
			}
			sources = append(sources, NewSerpAPISource("", creds.SerpAPIKey, client))
		default:
			return nil, fmt.Errorf("unsupported API provider: %s (supported: aliexpress, openservice-aliexpress, cj, serpapi)", name)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no dropshipping provider configured")
	}
	return sources, nil
}
