package validate

import (
	"net/url"
	"strings"
)

// Tier ranks how authoritative a reference host is
type Tier string

const (
	TierPrimary   Tier = "primary"   // Style guides, standards bodies, .gov/.edu
	TierSecondary Tier = "secondary" // Advocacy and media-reference organisations
	TierTertiary  Tier = "tertiary"  // Everything else
)

// DefaultPrimaryDomains are style guide publishers
var DefaultPrimaryDomains = []string{
	"apastyle.apa.org",
	"apa.org",
	"apstylebook.com",
	"chicagomanualofstyle.org",
	"who.int",
}

// DefaultSecondaryDomains are organisations that publish terminology guides
var DefaultSecondaryDomains = []string{
	"glaad.org",
	"hrc.org",
	"transequality.org",
	"consciousstyleguide.com",
	"wikipedia.org",
}

// AuthorityClassifier assigns reference links to tiers by host
type AuthorityClassifier struct {
	primary   []string
	secondary []string
}

// NewAuthorityClassifier creates a classifier. Nil lists use the defaults.
func NewAuthorityClassifier(primary, secondary []string) *AuthorityClassifier {
	if primary == nil {
		primary = DefaultPrimaryDomains
	}
	if secondary == nil {
		secondary = DefaultSecondaryDomains
	}
	return &AuthorityClassifier{
		primary:   lowerAll(primary),
		secondary: lowerAll(secondary),
	}
}

// Classify returns the tier of rawURL's host. Subdomains inherit the tier
// of their parent domain.
func (a *AuthorityClassifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())

	if matchesDomain(host, a.primary) {
		return TierPrimary
	}
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return TierSecondary
	}
	return TierTertiary
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
