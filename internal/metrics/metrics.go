package metrics

import (
	"expvar"
)

var (
	// DocumentsIngested counts documents stored successfully
	DocumentsIngested = expvar.NewInt("documents_ingested_total")

	// IngestFailures counts uploads rejected or failed before the record was stored
	IngestFailures = expvar.NewInt("ingest_failures_total")

	// ExtractionTimeouts counts extractions cut off by the timeout
	ExtractionTimeouts = expvar.NewInt("extraction_timeouts_total")

	// ChunksIndexed counts chunk vectors written to the index
	ChunksIndexed = expvar.NewInt("chunks_indexed_total")

	// ChunkEmbedFailures counts chunks skipped because embedding failed
	ChunkEmbedFailures = expvar.NewInt("chunk_embed_failures_total")

	// PartialIndexFailures counts documents with at least one chunk missing from the index
	PartialIndexFailures = expvar.NewInt("partial_index_failures_total")

	// ChunkRepairs counts documents whose chunk list was rebuilt on read
	ChunkRepairs = expvar.NewInt("chunk_repairs_total")

	// AnalysisCacheHits counts page analyses served from the cache
	AnalysisCacheHits = expvar.NewInt("analysis_cache_hits_total")

	// AnalysisCacheMisses counts page analyses sent to the model
	AnalysisCacheMisses = expvar.NewInt("analysis_cache_misses_total")
)
