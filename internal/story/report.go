package story

// Finding severities, highest first.
const (
	FindingLockViolation    = "lock-violation"
	FindingFactMismatch     = "fact-mismatch"
	FindingUnknownReference = "unknown-reference"
)

// FindingSeverities lists the severities in report order.
var FindingSeverities = []string{FindingLockViolation, FindingFactMismatch, FindingUnknownReference}

// Continuity inputs.
const (
	InputDraft = "draft"
	InputFinal = "final"
)

// ContinuityReport is the output of a continuity check. Findings are data;
// a report with findings is still a successful check.
type ContinuityReport struct {
	SceneID  int            `json:"scene_id"`
	Input    string         `json:"input"`
	Findings []Finding      `json:"findings"`
	POV      VoiceCheck     `json:"pov"`
	Tense    VoiceCheck     `json:"tense"`
	Locks    []LockStatus   `json:"locks"`
	Beats    []BeatCoverage `json:"beats"`
	Summary  ReportSummary  `json:"summary"`
}

// Check statuses for POV, tense and locks.
const (
	CheckPass     = "pass"
	CheckMismatch = "mismatch"
	CheckViolated = "violated"
	CheckUnclear  = "unclear"
)

// VoiceCheck compares the narration's POV or tense with the one Ring A asks
// for. Counts are the markers seen outside dialogue.
type VoiceCheck struct {
	Expected string         `json:"expected,omitempty"`
	Observed string         `json:"observed,omitempty"`
	Status   string         `json:"status"`
	Counts   map[string]int `json:"counts"`
	Evidence *Evidence      `json:"evidence,omitempty"`
}

// LockStatus is the verdict for one lock.
type LockStatus struct {
	ID       string    `json:"id"`
	Key      string    `json:"key,omitempty"`
	Severity string    `json:"severity"`
	Status   string    `json:"status"`
	Evidence *Evidence `json:"evidence,omitempty"`
}

type Finding struct {
	FactKey   string   `json:"fact_key,omitempty"`
	Entity    string   `json:"entity"`
	Attribute string   `json:"attribute,omitempty"`
	Expected  string   `json:"expected,omitempty"`
	Observed  string   `json:"observed,omitempty"`
	Severity  string   `json:"severity"`
	Evidence  Evidence `json:"evidence"`
	LockID    string   `json:"lock_id,omitempty"`
}

// Evidence locates the sentence a finding came from (1-based positions).
type Evidence struct {
	Paragraph int    `json:"paragraph"`
	Sentence  int    `json:"sentence"`
	Text      string `json:"text"`
}

// BeatCoverage reports which must_include items of a beat appear in the
// prose and which must_avoid items do.
type BeatCoverage struct {
	Index    int      `json:"index"`
	Type     string   `json:"type"`
	Covered  []string `json:"covered"`
	Missing  []string `json:"missing"`
	Violated []string `json:"violated"`
}

type ReportSummary struct {
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	BeatsMissing int            `json:"beats_missing"`
}

// Patch operations.
const (
	PatchUpdateFact       = "update_fact"
	PatchManualResolution = "manual_resolution"
)

// Patch lists proposed fact changes. Entries are never applied automatically.
type Patch struct {
	SceneID int          `json:"scene_id"`
	Entries []PatchEntry `json:"entries"`
}

type PatchEntry struct {
	Op      string `json:"op"`
	FactKey string `json:"fact_key"`
	From    string `json:"from"`
	To      string `json:"to"`
	LockID  string `json:"lock_id,omitempty"`
	Reason  string `json:"reason"`
}
