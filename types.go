package racepub

// RaceMeta is the metadata record of a race report. Besides slug, titolo and
// data it carries whatever descriptive fields the admin form sends
// (categoria, distanza_km, luogo, ...); they are kept as-is.
type RaceMeta map[string]any

// String returns the value of key when it is a string, "" otherwise.
func (m RaceMeta) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// PublishRequest is the body of POST /api/pubblica.
type PublishRequest struct {
	Meta       RaceMeta `json:"meta"`
	HTMLBase64 string   `json:"htmlBase64"`
	Password   string   `json:"password"`
}

// PublishResult is returned when both files were committed.
type PublishResult struct {
	OK   bool   `json:"ok"`
	Slug string `json:"slug"`
}

// IndexEntry is one race in the published index.
type IndexEntry struct {
	Slug       string `json:"slug"`
	Titolo     string `json:"titolo"`
	Data       string `json:"data"`
	Year       string `json:"year"`
	RaceSeries string `json:"race_series,omitempty"`
}
