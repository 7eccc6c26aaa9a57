package services

// SegmentDef describes one rubric segment of a generated answer.
type SegmentDef struct {
	ID       string
	Label    string
	Required bool
}

// LookupField pairs a production column with the queue-item slot holding its
// value.
type LookupField struct {
	Column string
	Slot   string
}

// IntentConfig maps an intent onto its production table: which columns locate
// the record and which column (if any) each segment writes to. A segment
// mapped to the empty string is display-only and never written.
type IntentConfig struct {
	Schema        string
	Table         string
	Lookups       []LookupField
	SegmentFields map[string]string
	Segments      []SegmentDef
}

// Target returns the schema-qualified table name.
func (c IntentConfig) Target() string {
	return c.Schema + "." + c.Table
}

// defaultSegments is the rubric used for intents without their own definition.
// Every generated answer carries the same four roles.
var defaultSegments = []SegmentDef{
	{ID: "S1", Label: "Headline answer", Required: true},
	{ID: "S2", Label: "Clinical guidance", Required: true},
	{ID: "S3", Label: "Complete explanation", Required: true},
	{ID: "S4", Label: "Source attribution", Required: false},
}

var intentConfigs = map[string]IntentConfig{
	"interaction": {
		Schema: "public",
		Table:  "document_ddi_pairs",
		Lookups: []LookupField{
			{Column: "subject_drug", Slot: "drug_a"},
			{Column: "object_drug", Slot: "drug_b"},
		},
		SegmentFields: map[string]string{
			"S1": "effect_s1",
			"S2": "guidance",
			"S3": "effect_complete",
			"S4": "", // source attribution is not stored in production
		},
		Segments: defaultSegments,
	},
	"dosing": {
		Schema: "content",
		Table:  "drug_dosing",
		Lookups: []LookupField{
			{Column: "drug_id", Slot: "drug"},
			{Column: "indication", Slot: "indication"},
		},
		SegmentFields: map[string]string{
			"S1": "dose_value",
			"S2": "frequency",
			"S3": "special_considerations",
			"S4": "",
		},
		Segments: defaultSegments,
	},
}

// IntentConfigFor returns the production mapping for an intent.
func IntentConfigFor(intent string) (IntentConfig, bool) {
	cfg, ok := intentConfigs[intent]
	return cfg, ok
}

// RubricFor returns the scoring rubric for an intent. Intents without a
// production mapping still use the default four-segment rubric, so they can
// be reviewed even when reconciliation has nowhere to write.
func RubricFor(intent string) []SegmentDef {
	if cfg, ok := intentConfigs[intent]; ok && len(cfg.Segments) > 0 {
		return cfg.Segments
	}
	return defaultSegments
}
