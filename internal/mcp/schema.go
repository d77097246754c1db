package mcp

// SimStepInput defines the input for the sim_step tool.
type SimStepInput struct {
	Rounds int `json:"rounds,omitempty" jsonschema:"Number of rounds to play (default 1, max 10000); stops early at the round cap"`
}

// SimStepOutput defines the output for the sim_step tool.
type SimStepOutput struct {
	Played   int            `json:"played" jsonschema:"Rounds actually played by this call"`
	Capped   bool           `json:"capped" jsonschema:"Whether the round cap has been reached"`
	Recent   []RoundItem    `json:"recent" jsonschema:"Most recent rounds played by this call, oldest first"`
	Snapshot SnapshotOutput `json:"snapshot" jsonschema:"Simulation state after the call"`
	Summary  *SummaryOutput `json:"summary,omitempty" jsonschema:"Run summary, present once the cap is reached"`
}

// RoundItem describes one played round.
type RoundItem struct {
	Round      int     `json:"round"`
	Alpha      string  `json:"alpha"`
	Beta       string  `json:"beta"`
	AlphaScore float64 `json:"alpha_score"`
	BetaScore  float64 `json:"beta_score"`
	Verdict    string  `json:"verdict"`
}

// SimSnapshotInput defines the input for the sim_snapshot tool.
type SimSnapshotInput struct {
	IncludeHistory bool `json:"include_history,omitempty" jsonschema:"Include the full rolling win-rate history (default: false)"`
}

// SnapshotOutput is a flattened simulation snapshot.
type SnapshotOutput struct {
	Rounds  int         `json:"rounds" jsonschema:"Rounds played in the current run"`
	Cap     int         `json:"cap" jsonschema:"Configured round cap"`
	Seed    int64       `json:"seed" jsonschema:"Seed of the current run"`
	Running bool        `json:"running" jsonschema:"Play/pause flag"`
	State   string      `json:"state" jsonschema:"Lifecycle state: idle, running or capped"`
	Tally   TallyOutput `json:"tally" jsonschema:"Rounds per verdict"`
	Pairs   []PairItem  `json:"pairs" jsonschema:"Strategy-pair counts in canonical order"`
	Latest  RateItem    `json:"latest" jsonschema:"Most recent rolling win rates"`
	History []RateItem  `json:"history,omitempty" jsonschema:"Rolling win-rate history, one entry per round"`
}

// TallyOutput counts rounds per verdict.
type TallyOutput struct {
	AlphaWins int `json:"alpha_wins"`
	BetaWins  int `json:"beta_wins"`
	Draws     int `json:"draws"`
}

// PairItem is one cell of the strategy-pair matrix.
type PairItem struct {
	Alpha   string  `json:"alpha"`
	Beta    string  `json:"beta"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Winner  string  `json:"winner" jsonschema:"Winner of this pair under the payoff matrix: A, B or Draw"`
}

// RateItem is one point of the rolling win-rate history, in percent.
type RateItem struct {
	Round     int     `json:"round"`
	AlphaWins float64 `json:"alpha_wins"`
	BetaWins  float64 `json:"beta_wins"`
	Draw      float64 `json:"draw"`
}

// SimResetInput defines the input for the sim_reset tool.
type SimResetInput struct {
	Seed string `json:"seed,omitempty" jsonschema:"New integer seed; omit to restart with the current seed"`
}

// SimResetOutput defines the output for the sim_reset tool.
type SimResetOutput struct {
	Seed    int64  `json:"seed" jsonschema:"Seed of the new run"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// SimToggleInput defines the input for the sim_toggle tool.
type SimToggleInput struct{}

// SimToggleOutput defines the output for the sim_toggle tool.
type SimToggleOutput struct {
	Running bool   `json:"running" jsonschema:"Play/pause flag after the toggle"`
	State   string `json:"state" jsonschema:"Lifecycle state: idle, running or capped"`
}

// SimSummaryInput defines the input for the sim_summary tool.
type SimSummaryInput struct{}

// SummaryOutput describes a completed run.
type SummaryOutput struct {
	Rounds            int         `json:"rounds"`
	Seed              int64       `json:"seed"`
	Shares            []ShareItem `json:"shares" jsonschema:"Share of rounds per verdict"`
	MostFrequent      string      `json:"most_frequent" jsonschema:"Most frequent strategy pair, e.g. (Early, Wait)"`
	MostFrequentCount int         `json:"most_frequent_count"`
	Report            string      `json:"report" jsonschema:"Plain-text summary report"`
}

// ShareItem is one verdict's share of a run.
type ShareItem struct {
	Verdict string  `json:"verdict"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}
