package genre

// canonicalAliases maps slugged variations to canonical genre slugs.
// Keys are already slugified.
var canonicalAliases = map[string][]string{
	// Hip hop
	"hiphop": {"hip-hop"},
	"rap":    {"hip-hop"},

	// R&B and soul
	"r-b":              {"rnb"},
	"r-n-b":            {"rnb"},
	"rhythm-and-blues": {"rnb"},
	"r-b-soul":         {"rnb", "soul"},

	// Electronic
	"edm":           {"electronic"},
	"electronica":   {"electronic"},
	"electro":       {"electronic"},
	"drum-bass":     {"drum-and-bass"},
	"drum-n-bass":   {"drum-and-bass"},
	"dnb":           {"drum-and-bass"},
	"d-b":           {"drum-and-bass"},
	"synth-wave":    {"synthwave"},
	"outrun":        {"synthwave"},
	"retrowave":     {"synthwave"},
	"lofi":          {"lo-fi"},
	"lo-fi-hip-hop": {"lo-fi", "hip-hop"},
	"chillhop":      {"lo-fi", "hip-hop"},

	// Rock
	"rock-n-roll":       {"rock-and-roll"},
	"rock-roll":         {"rock-and-roll"},
	"alt-rock":          {"alternative-rock"},
	"alternative":       {"alternative-rock"},
	"indie-rock":        {"indie", "rock"},
	"post-punk-revival": {"post-punk"},

	// Folk and country
	"americana-country": {"americana", "country"},
	"singer-songwriter": {"folk"},
	"bluegrass-folk":    {"bluegrass", "folk"},

	// Jazz and classical
	"be-bop":        {"bebop"},
	"jazz-fusion":   {"jazz", "fusion"},
	"neo-classical": {"neoclassical"},
	"orchestral":    {"classical"},
}

// NormalizeToSlugs takes a raw genre label and returns its canonical slug(s).
// Labels without a known alias return their own slug, and labels with no
// ASCII letters or digits return nil.
func NormalizeToSlugs(raw string) []string {
	slug := Slugify(raw)
	if slug == "" {
		return nil
	}

	if canonical, ok := canonicalAliases[slug]; ok {
		return canonical
	}

	return []string{slug}
}

// NormalizeAll normalizes every label, dropping empties and duplicates while
// keeping first-seen order.
func NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, label := range raw {
		for _, slug := range NormalizeToSlugs(label) {
			if _, dup := seen[slug]; dup {
				continue
			}
			seen[slug] = struct{}{}
			out = append(out, slug)
		}
	}
	return out
}
