package azsearch

// indexSchema builds the index definition: one searchable child chunk field
// with its vector, the parent text for answer context, and filterable
// document metadata. The (title, date) pair doubles as the dedup key.
func indexSchema(name string, vectorDimensions int) map[string]any {
	return map[string]any{
		"name": name,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true, "filterable": true},
			{"name": "parent_id", "type": "Edm.String", "filterable": true},
			{"name": "parent_chunk", "type": "Edm.String", "searchable": false, "filterable": false},
			{"name": "chunk", "type": "Edm.String", "searchable": true},
			{
				"name":                "chunk_vector",
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"dimensions":          vectorDimensions,
				"vectorSearchProfile": "chunk-vector-profile",
				"retrievable":         false,
			},
			{"name": "title", "type": "Edm.String", "searchable": true, "filterable": true},
			{"name": "date", "type": "Edm.DateTimeOffset", "filterable": true, "sortable": true},
			{"name": "website", "type": "Edm.String", "filterable": true},
			{"name": "keyword", "type": "Edm.String", "searchable": true, "filterable": true},
			{"name": "notified_country", "type": "Edm.String", "filterable": true},
			{"name": "url", "type": "Edm.String", "searchable": true, "filterable": true},
		},
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{
				{"name": "chunk-hnsw", "kind": "hnsw"},
			},
			"profiles": []map[string]any{
				{"name": "chunk-vector-profile", "algorithm": "chunk-hnsw"},
			},
		},
	}
}
