// Package services contains the core pipeline logic: batching embedding,
// retrieval, context assembly, and the ingestion and query orchestrators.
// Services depend only on driven ports; adapters are injected at wiring time.
package services
