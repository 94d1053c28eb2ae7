package spam

// Keyword tiers and their weights. Matching is case-insensitive substring;
// the weighted sum flags at keywordSpamMin.
const (
	weightCommercial = 10
	weightFinancial  = 20
	weightPhishing   = 30

	keywordSpamMin = 50
)

var commercialKeywords = []string{
	"buy now",
	"limited offer",
	"order now",
	"best price",
	"free shipping",
	"click here",
	"act now",
	"discount code",
}

var financialKeywords = []string{
	"make money fast",
	"guaranteed income",
	"work from home",
	"investment opportunity",
	"double your money",
	"crypto giveaway",
	"passive income",
}

var phishingKeywords = []string{
	"verify your account",
	"confirm your password",
	"account suspended",
	"claim your prize",
	"you have won",
	"urgent action required",
}
