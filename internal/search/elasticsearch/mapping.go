package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "catalog_products"

// buildIndexMapping returns the JSON mapping for the products index.
// sku, category and status are text fields with a .keyword sub-field so
// term filters match exact values while free-text queries still analyze.
// Dates use the same "yyyy-MM-dd HH:mm:ss" layout the documents carry.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "sku":         { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "name":        { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description": { "type": "text" },
      "price":       { "type": "double" },
      "category":    { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "status":      { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "created_at":  { "type": "date", "format": "yyyy-MM-dd HH:mm:ss||yyyy-MM-dd" },
      "updated_at":  { "type": "date", "format": "yyyy-MM-dd HH:mm:ss||yyyy-MM-dd" }
    }
  }
}`
}
