package nlp

import (
	"fmt"
	"sort"
	"strings"
)

// categoryKeyword maps one French or English synonym to a canonical category.
type categoryKeyword struct {
	keyword  string
	category string
}

// intentGroup is the phrase list scored for one intent.
type intentGroup struct {
	intent  Intent
	phrases []string
}

// sortRule maps an explicit ordering phrase to a field and direction.
type sortRule struct {
	phrases []string
	field   SortField
	order   SortOrder
}

// Library holds the static bilingual tables used by the extractors. It is
// built once by NewLibrary and only read afterwards, so a single instance
// can be shared by any number of goroutines.
type Library struct {
	categories   []categoryKeyword
	brands       map[string]struct{}
	intents      []intentGroup
	sortRules    []sortRule
	cheap        []string
	luxury       []string
	rating       []string
	reviews      []string
	bestseller   []string
	priceHints   []string
	stopWords    map[string]struct{}
	removable    []string
	categoryKeys []string
}

// NewLibrary builds the pattern tables and checks their consistency.
func NewLibrary() (*Library, error) {
	l := &Library{
		categories: defaultCategories(),
		brands:     toSet(defaultBrands),
		intents:    defaultIntentGroups(),
		sortRules:  defaultSortRules(),
		cheap:      cheapKeywords,
		luxury:     luxuryKeywords,
		rating:     ratingKeywords,
		reviews:    reviewKeywords,
		bestseller: bestsellerPhrases,
		priceHints: priceHints,
		stopWords:  toSet(append(append([]string{}, stopWords...), fillerWords...)),
	}
	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("build pattern library: %w", err)
	}
	l.removable = l.removablePhrases()
	for _, c := range l.categories {
		l.categoryKeys = append(l.categoryKeys, c.keyword)
	}
	return l, nil
}

// MustLibrary is NewLibrary for tests and command-line tools.
func MustLibrary() *Library {
	l, err := NewLibrary()
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Library) validate() error {
	canonical := toSet(Categories())
	seen := make(map[string]struct{}, len(l.categories))
	for _, c := range l.categories {
		if _, ok := canonical[c.category]; !ok {
			return fmt.Errorf("keyword %q maps to unknown category %q", c.keyword, c.category)
		}
		if _, dup := seen[c.keyword]; dup {
			return fmt.Errorf("duplicate category keyword %q", c.keyword)
		}
		if c.keyword != Normalize(c.keyword) {
			return fmt.Errorf("category keyword %q is not normalized", c.keyword)
		}
		seen[c.keyword] = struct{}{}
	}
	for b := range l.brands {
		if b != strings.ToLower(b) || strings.ContainsAny(b, " \t") {
			return fmt.Errorf("brand %q must be a single lowercase token", b)
		}
	}
	for _, g := range l.intents {
		if !g.intent.Valid() {
			return fmt.Errorf("unknown intent %q", g.intent)
		}
		if len(g.phrases) == 0 {
			return fmt.Errorf("intent %q has no phrases", g.intent)
		}
	}
	for _, r := range l.sortRules {
		if !r.field.Valid() {
			return fmt.Errorf("unknown sort field %q", r.field)
		}
	}
	return nil
}

// removablePhrases returns every table phrase the isolator strips, longest
// first so "meilleure vente" goes before "meilleure".
func (l *Library) removablePhrases() []string {
	set := make(map[string]struct{})
	add := func(ps []string) {
		for _, p := range ps {
			set[p] = struct{}{}
		}
	}
	for _, g := range l.intents {
		add(g.phrases)
	}
	for _, r := range l.sortRules {
		add(r.phrases)
	}
	add(l.cheap)
	add(l.luxury)
	add(l.rating)
	add(l.reviews)
	add(l.bestseller)

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// IsStopWord reports whether token is excluded from keywords and search terms.
func (l *Library) IsStopWord(token string) bool {
	_, ok := l.stopWords[token]
	return ok
}

// IsBrand reports whether token is a known brand.
func (l *Library) IsBrand(token string) bool {
	_, ok := l.brands[token]
	return ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// defaultCategories is ordered: the first keyword found decides the category.
func defaultCategories() []categoryKeyword {
	groups := []struct {
		category string
		keywords []string
	}{
		{CategoryElectronics, []string{
			"electronique", "électronique", "electronics", "tech",
			"telephone", "téléphone", "phone", "smartphone",
			"ordinateur", "computer", "laptop", "pc",
			"tablette", "tablet", "camera", "tv",
			"audio", "casque", "headphone", "speaker",
		}},
		{CategoryBooks, []string{"livre", "livres", "book", "books", "roman", "ebook"}},
		{CategoryClothing, []string{
			"vetement", "vêtement", "clothing", "clothes",
			"mode", "fashion", "chaussure", "shoes",
		}},
		{CategoryHomeKitchen, []string{"maison", "home", "cuisine", "kitchen"}},
		{CategoryToysGames, []string{"jouet", "jouets", "toys", "jeux"}},
		{CategorySportsOutdoor, []string{"sport", "sports", "fitness", "outdoor"}},
		{CategoryBeauty, []string{"beaute", "beauté", "beauty", "cosmetique", "maquillage"}},
		// Late additions only decide queries none of the keywords above match.
		{CategoryHomeKitchen, []string{"decoration", "décoration", "meuble"}},
		{CategoryToysGames, []string{"jeu", "games"}},
	}
	var out []categoryKeyword
	for _, g := range groups {
		for _, k := range g.keywords {
			out = append(out, categoryKeyword{keyword: k, category: g.category})
		}
	}
	return out
}

var defaultBrands = []string{
	"apple", "samsung", "sony", "lg", "microsoft", "dell", "hp",
	"lenovo", "asus", "acer", "nike", "adidas", "puma", "crocs",
	"amazon", "logitech", "bose", "jbl", "philips", "panasonic",
	"canon", "nikon", "gopro", "xiaomi", "huawei", "google",
}

// defaultIntentGroups is ordered: on equal scores the earlier intent wins.
func defaultIntentGroups() []intentGroup {
	return []intentGroup{
		{IntentTopRated, []string{
			"meilleur", "meilleurs", "meilleure", "meilleures", "best", "top",
			"mieux noté", "bien noté", "highly rated", "top rated", "excellent",
		}},
		{IntentBestValue, []string{
			"rapport qualité prix", "value for money", "bon rapport", "best value",
			"qualité prix", "quality price",
		}},
		{IntentPriceFilter, []string{
			"pas cher", "cheap", "budget", "économique", "abordable", "affordable",
			"discount", "promo", "solde", "moins cher", "cheapest",
		}},
		{IntentBestsellers, []string{
			"bestseller", "best seller", "populaire", "popular", "tendance",
			"trending", "plus vendu", "top vente",
		}},
		{IntentNewArrivals, []string{
			"nouveau", "nouveaux", "nouvelle", "new", "latest", "récent", "recent",
		}},
		{IntentReviewsFilter, []string{
			"reviews", "review", "avis", "commentaires", "commentaire",
			"évaluations", "évaluation", "notes",
		}},
	}
}

// defaultSortRules is checked top to bottom. Price phrases come first and
// multi-word phrases precede the bare "cher" so "pas cher" and "moins cher"
// sort ascending while "cher" alone sorts descending.
func defaultSortRules() []sortRule {
	return []sortRule{
		{[]string{
			"moins cher", "pas cher", "prix croissant", "prix bas", "low to high",
			"lowest price", "cheapest", "cheap",
		}, SortPrice, OrderAsc},
		{[]string{
			"plus cher", "prix décroissant", "prix decroissant", "high to low",
			"highest price", "most expensive", "expensive", "cher", "chère",
		}, SortPrice, OrderDesc},
		{[]string{
			"mieux noté", "mieux note", "meilleure note", "top rated",
			"highest rated", "best rated",
		}, SortRating, OrderDesc},
		{[]string{
			"plus d'avis", "plus d avis", "plus commenté", "most reviews", "most reviewed",
		}, SortReviewsCount, OrderDesc},
		{[]string{
			"plus vendu", "meilleure vente", "best selling", "populaire", "popular",
		}, SortSalesCount, OrderDesc},
		{[]string{
			"plus récent", "nouveauté", "récent", "recent", "nouveau", "newest",
			"latest", "new",
		}, SortCreatedAt, OrderDesc},
	}
}

var (
	cheapKeywords = []string{
		"pas cher", "cheap", "budget", "économique", "economique",
		"abordable", "affordable",
	}
	luxuryKeywords = []string{"luxe", "premium", "haut de gamme", "luxury"}

	ratingKeywords = []string{
		"bien noté", "bien note", "mieux noté", "mieux note", "top rated",
		"highly rated", "best rated", "excellent",
	}

	reviewKeywords = []string{
		"highly reviewed", "beaucoup d'avis", "beaucoup d avis", "nombreux avis",
		"many reviews", "lots of reviews", "populaire",
	}

	bestsellerPhrases = []string{
		"bestseller", "best seller", "best-seller", "meilleure vente",
		"plus vendu", "top vente", "populaire",
	}

	// priceHints are matched as raw substrings when no intent phrase scored.
	priceHints = []string{"sous", "under", "below", "moins", "max", "$", "€", "<", ">"}
)

var stopWords = []string{
	// French articles and prepositions
	"le", "la", "les", "un", "une", "des", "du", "de", "d", "l",
	"à", "au", "aux", "et", "ou", "mais", "pour", "par", "sur", "sous",
	"dans", "avec", "sans", "ce", "cette", "ces", "mon", "ma", "mes",
	"en", "entre", "chez",
	// French pronouns
	"je", "tu", "il", "elle", "nous", "vous", "ils", "elles",
	"qui", "que", "quoi", "dont", "où", "très", "plus", "moins",
	// French search words
	"produit", "produits", "article", "articles", "cherche", "recherche", "veux",
	"voudrais", "trouver", "acheter",
	// English articles and prepositions
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
	"for", "of", "with", "by", "from", "is", "are", "was", "were",
	"than", "less", "more",
	// English pronouns
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her",
	"my", "your", "his", "its", "our", "their", "this", "that",
	// search words
	"product", "products", "item", "items", "buy", "want", "need",
	"looking", "search", "find", "get", "show",
	// category words
	"category", "categories", "categorie", "catégorie", "catégories",
	"type", "types", "kind", "kinds", "genre", "genres",
	// price words
	"dollar", "dollars", "euro", "euros", "eur", "usd", "price", "prix", "cost",
}

// fillerWords are entity tokens that survive span removal in odd phrasings
// ("pas vraiment cher", "note 4") and must not become search terms.
var fillerWords = []string{
	"pas", "cher", "chers", "chère", "chères",
	"over", "under", "below", "above",
	"étoile", "étoiles", "etoile", "etoiles", "star", "stars",
	"avis", "review", "reviews", "commentaire", "commentaires",
	"note", "notes", "noté", "notés", "rated", "rating",
	"vente", "ventes", "vendu", "vendus",
}
