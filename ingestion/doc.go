// Package ingestion publishes complaint folders to the analytical store.
//
// The Orchestrator discovers complaint folders in the blob store, skips the
// ones carrying a processed marker, classifies the rest and hands one row per
// folder to a writer.Writer. The marker is written only after the row was
// accepted, so a failed insert leaves the folder eligible for the next run.
// A crash between insert and marker write can produce a duplicate row on
// retry; rows carry complaint_id for downstream dedup.
//
// Folder failures never abort a run. Missing required artifacts, malformed
// artifacts and insert failures are logged and counted in the Summary.
//
// Processing is sequential by default. WithWorkers runs folders on a worker
// pool; WithClaims guards each folder with a create-if-absent claim so that
// concurrent runs do not publish the same folder twice.
//
// The Analyzer backfills complaint_extract.json for folders that were
// submitted without text analysis.
package ingestion
