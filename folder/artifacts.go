package folder

// Artifact names inside a complaint folder.
const (
	MetadataFile      = "metadata.json"
	LocationFile      = "location.json"
	TextFile          = "complaint.txt"
	MetaFile          = "meta.json"
	ExtractFile       = "complaint_extract.json"
	LabelFile         = "label.json"
	StatusHistoryFile = "status_history.json"
	PhotoFile         = "photo.jpg"
	MarkerFile        = "processed_for_bigquery.txt"
	ClaimFile         = "processing_claim.txt"
)

// RequiredArtifacts must all be present before a folder can be published.
var RequiredArtifacts = []string{MetadataFile, LocationFile, TextFile}
