package feed

import (
	"regexp"
	"strings"
)

// Keyword groups recognized in captions and hashtags.
var (
	CategoryTerms = []string{
		"dress", "dresses", "midi", "maxi", "mini", "skirt", "top", "crop",
		"jeans", "denim", "pants", "trousers", "blazer", "jacket", "coat",
		"sweater", "hoodie", "cardigan", "bodysuit", "romper", "jumpsuit",
		"bikini", "swimwear", "lingerie", "activewear", "athleisure",
		"sneakers", "heels", "boots", "sandals", "shoes", "bag", "handbag",
		"jewelry", "earrings", "necklace", "bracelet", "sunglasses",
		"hat", "scarf", "belt",
	}
	StyleTerms = []string{
		"streetwear", "y2k", "cottagecore", "coquette", "balletcore",
		"quietluxury", "oldmoney", "coastal", "coastalgranddaughter",
		"mobwife", "cleangirlera", "cleangirl", "thatgirl", "darkfeminine",
		"lightacademia", "darkacademia", "grunge", "boho", "bohemian",
		"minimalist", "maximalist", "preppy", "fairycore", "goblincore",
		"gorpcore", "normcore", "blokette", "tenniscore", "officecore",
		"corporate", "downtown", "uptown", "tomato", "tomatogirl",
		"vanilla", "vanillagirl", "strawberry", "strawberrygirl",
		"cherryred", "burgandyfall", "butter", "lavenderhaze",
		"dopamine", "dopaminedressing", "barbiecore", "mermaidcore",
		"retrofuturism", "cybercore", "westernchic",
		"quiet", "luxury", "effortless", "aesthetic",
	}
	ColorTerms = []string{
		"red", "blue", "green", "pink", "black", "white", "beige", "navy",
		"burgundy", "lavender", "sage", "olive", "coral", "pastel", "neon",
		"neutral", "earth", "jeweltone", "chocolate", "camel", "cream",
		"ivory", "blush", "terracotta", "rust", "mustard", "forest",
	}
	PatternTerms = []string{
		"plaid", "stripe", "striped", "floral", "leopard", "animal",
		"polkadot", "checkered", "gingham", "houndstooth", "tie-dye",
		"tiedye", "camo", "abstract", "geometric", "paisley",
		"colorblock", "ombre",
	}
	FabricTerms = []string{
		"silk", "satin", "velvet", "leather", "denim", "linen",
		"cotton", "cashmere", "wool", "mesh", "lace", "tulle",
		"sequin", "crochet", "knit", "sheer",
	}
)

// NoiseHashtags are generic hashtags excluded from trend counts.
var NoiseHashtags = toSet([]string{
	"love", "instagood", "photooftheday", "beautiful", "happy",
	"cute", "selfie", "me", "follow", "like", "followme",
	"picoftheday", "instadaily", "amazing", "fun", "summer",
	"winter", "spring", "fall", "life", "smile", "music",
	"food", "fitness", "workout", "travel", "photography",
	"nature", "art", "friends", "family", "dog", "cat",
	"reels", "reel", "viral", "trending", "fyp", "foryou",
	"foryoupage", "explore", "explorepage", "ad", "sponsored",
	"gifted", "collab", "collaboration",
})

var allFashionTerms = toSet(concat(CategoryTerms, StyleTerms, ColorTerms, PatternTerms, FabricTerms))

var fashionFragments = []string{"fashion", "style", "outfit", "ootd", "wear", "look"}

// matcher finds whole-word terms.
type matcher struct {
	term string
	re   *regexp.Regexp
}

func wordMatchers(terms []string) []matcher {
	out := make([]matcher, len(terms))
	for i, t := range terms {
		out[i] = matcher{term: t, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(t)) + `\b`)}
	}
	return out
}

var (
	categoryMatchers = wordMatchers(CategoryTerms)
	colorMatchers    = wordMatchers(ColorTerms)
	patternMatchers  = wordMatchers(PatternTerms)
	fabricMatchers   = wordMatchers(FabricTerms)
)

// IsFashionHashtag reports whether a lowercased hashtag is a known fashion
// term or contains a fashion fragment.
func IsFashionHashtag(tag string) bool {
	if allFashionTerms[tag] {
		return true
	}
	for _, f := range fashionFragments {
		if strings.Contains(tag, f) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[strings.ToLower(it)] = true
	}
	return m
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
