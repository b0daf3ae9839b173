package reconcile

// Item is one object on a side.
type Item struct {
	Name string
	Size int64
}

// Result is the reconciliation output for a single name.
type Result struct {
	Name          string `json:"name"`
	LocalPresent  bool   `json:"local_present"`
	MirrorPresent bool   `json:"mirror_present"`
	// Mismatch describes differences between the two copies, e.g.
	// "size: local=120 mirror=96".
	Mismatch []string `json:"mismatch"`
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionUpload copies a local file to the mirror.
	ActionUpload ActionType = "upload"
	// ActionRestore copies a mirror object to local disk.
	ActionRestore ActionType = "restore"
	// ActionDeleteLocal deletes a local file.
	ActionDeleteLocal ActionType = "delete_local"
	// ActionDeleteMirror deletes a mirror object.
	ActionDeleteMirror ActionType = "delete_mirror"
)

// Action represents a planned mutation operation.
type Action struct {
	Type   ActionType `json:"type"`
	Name   string     `json:"name"`
	Reason string     `json:"reason"`
}

// Plan contains reconciliation results and planned actions.
type Plan struct {
	Results []Result    `json:"results"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalItems is the number of distinct names across both sides.
	TotalItems    int `json:"total_items"`
	MissingLocal  int `json:"missing_local"`
	MissingMirror int `json:"missing_mirror"`
	Mismatches    int `json:"mismatches"`
	PurgeActions  int `json:"purge_actions"`
	SyncActions   int `json:"sync_actions"`
}

// Options controls what a plan contains and whether it may be applied.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoPurge deletes names present on one side only. It takes precedence
	// over DoSync for those names.
	DoPurge bool

	// DoSync copies names to the side missing them and re-uploads local
	// copies whose size differs from the mirror.
	DoSync bool

	// Confirmed indicates the caller has confirmed the mutations.
	// If false, Apply does nothing regardless of DryRun.
	Confirmed bool
}
