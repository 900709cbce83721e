package config

import "fmt"

// DefaultCategoryCode is the Merchant Center taxonomy code used when nothing matches
// (166 = Apparel & Accessories).
const DefaultCategoryCode = "166"

// OptimizerConfig holds the static configuration of the feed optimization pipeline
type OptimizerConfig struct {
	Validation ValidationRules `mapstructure:"validation"`
	Weights    ScoreWeights    `mapstructure:"weights"`
	Tiers      TierThresholds  `mapstructure:"tiers"`
	Category   CategoryConfig  `mapstructure:"category"`
}

// ValidationRules holds product field limits
type ValidationRules struct {
	MinTitleLength       int     `mapstructure:"min_title_length" validate:"gte=1"`
	MaxTitleLength       int     `mapstructure:"max_title_length" validate:"gtfield=MinTitleLength"`
	MinDescriptionLength int     `mapstructure:"min_description_length" validate:"gte=0"`
	MaxDescriptionLength int     `mapstructure:"max_description_length" validate:"gtfield=MinDescriptionLength"`
	PriceMin             float64 `mapstructure:"price_min" validate:"gte=0"`
	PriceMax             float64 `mapstructure:"price_max" validate:"gtfield=PriceMin"`
}

// ScoreWeights holds the maximum points of each subscore
type ScoreWeights struct {
	BaseQuality int `mapstructure:"base_quality" validate:"gte=0"`
	Margin      int `mapstructure:"margin" validate:"gte=0"`
	Recruitment int `mapstructure:"recruitment" validate:"gte=0"`
}

// Total returns the sum of all weights
func (w ScoreWeights) Total() int {
	return w.BaseQuality + w.Margin + w.Recruitment
}

// TierThresholds holds the minimum overall score of the high and medium tiers
type TierThresholds struct {
	High   int `mapstructure:"high" validate:"gtfield=Medium,lte=100"`
	Medium int `mapstructure:"medium" validate:"gte=0"`
}

// CategoryConfig holds the taxonomy dictionaries. Order is significant: first match wins.
type CategoryConfig struct {
	DefaultCode string             `mapstructure:"default_code" validate:"required"`
	CacheSize   int                `mapstructure:"cache_size" validate:"gte=0"`
	Phrases     []CategoryPhrase   `mapstructure:"phrases" validate:"dive"`
	Keywords    []CategoryKeywords `mapstructure:"keywords" validate:"dive"`
}

// CategoryPhrase maps a literal phrase to a taxonomy code.
// WholeWord phrases only match when not surrounded by letters or digits.
type CategoryPhrase struct {
	Phrase    string `mapstructure:"phrase" validate:"required"`
	Code      string `mapstructure:"code" validate:"required"`
	WholeWord bool   `mapstructure:"whole_word"`
}

// CategoryKeywords maps a taxonomy code to fallback keywords
type CategoryKeywords struct {
	Code     string   `mapstructure:"code" validate:"required"`
	Keywords []string `mapstructure:"keywords" validate:"min=1,dive,required"`
}

// Validate checks the cross-field rules struct tags cannot express
func (o OptimizerConfig) Validate() error {
	if total := o.Weights.Total(); total > 100 {
		return fmt.Errorf("score weights must sum to at most 100, got: %d", total)
	}
	if o.Tiers.Medium > o.Weights.Total() {
		return fmt.Errorf("medium tier threshold %d is unreachable with weights summing to %d", o.Tiers.Medium, o.Weights.Total())
	}
	return nil
}

func applyCategoryDefaults(c *CategoryConfig) {
	if len(c.Phrases) == 0 {
		c.Phrases = DefaultCategoryPhrases()
	}
	if len(c.Keywords) == 0 {
		c.Keywords = DefaultCategoryKeywords()
	}
}

// DefaultCategoryPhrases returns the built-in phrase dictionary.
// More specific phrases come before the generic ones they contain.
func DefaultCategoryPhrases() []CategoryPhrase {
	return []CategoryPhrase{
		{Phrase: "garde-robe", Code: "436"},
		{Phrase: "wardrobe", Code: "436"},
		{Phrase: "robe", Code: "2271", WholeWord: true},
		{Phrase: "dress", Code: "2271"},
		{Phrase: "t-shirt", Code: "212"},
		{Phrase: "chemise", Code: "212"},
		{Phrase: "shirt", Code: "212"},
		{Phrase: "vêtements", Code: "1604"},
		{Phrase: "vetements", Code: "1604"},
		{Phrase: "clothing", Code: "1604"},
		{Phrase: "apparel", Code: "1604"},
		{Phrase: "chaussures", Code: "187"},
		{Phrase: "shoes", Code: "187"},
		{Phrase: "sneakers", Code: "187"},
		{Phrase: "bijoux", Code: "188"},
		{Phrase: "jewelry", Code: "188"},
		{Phrase: "bagagerie", Code: "5181"},
		{Phrase: "luggage", Code: "5181"},
		{Phrase: "cosmétiques", Code: "469"},
		{Phrase: "beauté", Code: "469"},
		{Phrase: "beauty", Code: "469"},
		{Phrase: "maison", Code: "536"},
		{Phrase: "home decor", Code: "536"},
		{Phrase: "électronique", Code: "222"},
		{Phrase: "electronics", Code: "222"},
		{Phrase: "jouets", Code: "1239"},
		{Phrase: "toys", Code: "1239"},
		{Phrase: "sport", Code: "988", WholeWord: true},
		{Phrase: "sports", Code: "988", WholeWord: true},
		{Phrase: "épicerie", Code: "412"},
		{Phrase: "grocery", Code: "412"},
		{Phrase: "bébé", Code: "537"},
		{Phrase: "baby", Code: "537"},
		{Phrase: "animalerie", Code: "1"},
		{Phrase: "pet supplies", Code: "1"},
		{Phrase: "livres", Code: "783"},
		{Phrase: "books", Code: "783"},
		{Phrase: "fournitures de bureau", Code: "922"},
		{Phrase: "office supplies", Code: "922"},
		{Phrase: "bricolage", Code: "632"},
		{Phrase: "hardware", Code: "632"},
	}
}

// DefaultCategoryKeywords returns the built-in keyword fallback dictionary
func DefaultCategoryKeywords() []CategoryKeywords {
	return []CategoryKeywords{
		{Code: "1604", Keywords: []string{"pull", "sweat", "hoodie", "jean", "pantalon", "veste", "jacket", "manteau", "coat", "jupe", "skirt", "legging"}},
		{Code: "187", Keywords: []string{"bottes", "boots", "sandales", "sandals", "baskets", "mocassins", "talons", "heels"}},
		{Code: "188", Keywords: []string{"bague", "collier", "necklace", "bracelet", "earrings", "boucles d'oreilles"}},
		{Code: "469", Keywords: []string{"parfum", "perfume", "crème", "cream", "shampoing", "shampoo", "maquillage", "makeup", "skincare"}},
		{Code: "222", Keywords: []string{"téléphone", "phone", "ordinateur", "laptop", "casque", "headphones", "chargeur", "charger"}},
		{Code: "536", Keywords: []string{"bougie", "candle", "coussin", "cushion", "vase", "lampe", "lamp", "cuisine", "kitchen"}},
		{Code: "1239", Keywords: []string{"puzzle", "lego", "peluche", "plush", "jeu de société", "board game"}},
		{Code: "988", Keywords: []string{"yoga", "fitness", "running", "vélo", "bike", "camping"}},
		{Code: "412", Keywords: []string{"chocolat", "chocolate", "café", "coffee", "épices", "spices"}},
		{Code: "537", Keywords: []string{"poussette", "stroller", "biberon", "couche", "diaper"}},
		{Code: "1", Keywords: []string{"chien", "dog", "croquettes", "litière", "cat food"}},
		{Code: "5181", Keywords: []string{"backpack", "sac à dos", "valise", "suitcase", "handbag", "sac à main", "portefeuille", "wallet"}},
	}
}
