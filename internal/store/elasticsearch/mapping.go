package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "dashboard_products"

// buildIndexMapping returns the JSON mapping for the products index. Names
// are analysed for French with an English stemmed subfield, and an edge
// n-gram subfield serves autocomplete.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "french_folded": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["french_elision", "lowercase", "asciifolding", "french_light_stemmer"]
        },
        "english_folded": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "english_stemmer"]
        },
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      },
      "filter": {
        "french_elision": {
          "type": "elision",
          "articles_case": true,
          "articles": ["l", "m", "t", "qu", "n", "s", "j", "d", "c"]
        },
        "french_light_stemmer": {
          "type": "stemmer",
          "language": "light_french"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "english"
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "asin":            { "type": "keyword", "normalizer": "lowercase" },
      "product_name":    { "type": "text", "analyzer": "french_folded", "fields": { "en": { "type": "text", "analyzer": "english_folded" }, "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "price":           { "type": "double" },
      "rating":          { "type": "float" },
      "reviews_count":   { "type": "integer" },
      "category_name":   { "type": "text", "analyzer": "french_folded", "fields": { "keyword": { "type": "keyword" } } },
      "image_url":       { "type": "keyword", "index": false },
      "seller_name":     { "type": "keyword" },
      "stock_quantity":  { "type": "integer" },
      "is_bestseller":   { "type": "boolean" },
      "sales_count":     { "type": "integer" },
      "ranking":         { "type": "integer" },
      "approval_status": { "type": "keyword" },
      "created_at":      { "type": "date" }
    }
  }
}`
}
