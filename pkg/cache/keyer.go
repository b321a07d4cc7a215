package cache

// Keyer builds cache keys.
type Keyer interface {
	// ExtractKey returns the key for the records extracted from a dataset.
	ExtractKey(datasetHash string, opts ExtractKeyOpts) string
}

// ExtractKeyOpts lists the inputs besides the dataset that change an
// extraction result.
type ExtractKeyOpts struct {
	MaxFeatures    int      `json:"max_features"`
	Priorities     []string `json:"priorities"`      // "css:properties,selectors" per category
	ClassifierHash string   `json:"classifier_hash"` // Hash of the classifier tables
	Date           string   `json:"date"`            // Run date, YYYY-MM-DD
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExtractKey returns "extract:<sha256(hash, opts)>".
func (DefaultKeyer) ExtractKey(datasetHash string, opts ExtractKeyOpts) string {
	return hashKey("extract", datasetHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
