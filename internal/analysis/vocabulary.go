package analysis

// Categories used for mock classification.
var Categories = []string{
	"midi dress", "crop top", "cargo pants", "mini skirt", "blazer",
	"oversized shirt", "slip dress", "bucket hat", "cargo jacket", "vintage jeans",
	"ballet flats", "platform sneakers", "tube top", "trench coat", "wrap dress",
	"bodysuit", "maxi skirt", "tank top", "leather jacket", "tote bag",
}

var Colors = []string{
	"navy blue", "cream", "chocolate brown", "olive green", "mauve",
	"burnt orange", "sage green", "butter yellow", "blush pink", "charcoal grey",
	"white", "black", "camel", "rust", "burgundy",
	"forest green", "ivory", "taupe", "dusty rose", "powder blue",
}

var Patterns = []string{
	"solid", "plaid", "striped", "floral", "checkered", "polka dot", "paisley",
	"animal print", "houndstooth", "gingham", "abstract", "damask", "geometric",
}

var StyleTags = []string{
	"cottagecore", "y2k", "clean girl", "mob wife", "quiet luxury",
	"coquette", "dark academia", "soft girl", "indie sleaze", "gorpcore",
	"barbiecore", "maximalist", "minimalist", "grunge", "preppy",
	"romantic", "avant-garde", "vintage", "sustainable", "streetwear",
}

var PricePoints = []string{"budget", "mid", "luxury", "designer"}

var Fabrications = []string{
	"cotton", "linen", "silk", "satin", "denim", "wool", "cashmere",
	"polyester blend", "leather", "knit", "crochet", "mesh",
}

var Demographics = []string{"junior_girls", "young_women", "contemporary", "kids"}

// MockNarrative is the fixed narrative attached to generated analyses.
const MockNarrative = "This item exemplifies current trending aesthetics. The styling combines elements of popular substyles while maintaining contemporary appeal to junior fashion consumers. The color palette and silhouette align with emerging seasonal preferences."
