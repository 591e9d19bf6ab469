package output

// CheckDiagnostic is one problem in JSON output.
type CheckDiagnostic struct {
	Kind      string `json:"kind"`
	Command   string `json:"command,omitempty"`
	Extension string `json:"extension,omitempty"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

// CheckFileResult holds the outcome for one script.
type CheckFileResult struct {
	Path        string            `json:"path"`
	SyntaxError *CheckDiagnostic  `json:"syntax_error,omitempty"`
	Diagnostics []CheckDiagnostic `json:"diagnostics,omitempty"`
}

// CheckSummary counts results across files.
type CheckSummary struct {
	FilesChecked int `json:"files_checked"`
	FilesFailed  int `json:"files_failed"`
	SyntaxErrors int `json:"syntax_errors"`
	TotalIssues  int `json:"total_issues"`
}

// CheckOutput is the JSON document written by check.
type CheckOutput struct {
	Summary CheckSummary      `json:"summary"`
	Files   []CheckFileResult `json:"files"`
}

// CapabilityInfo describes one extension in caps output.
type CapabilityInfo struct {
	Name        string   `json:"name"`
	RFC         string   `json:"rfc,omitempty"`
	Description string   `json:"description"`
	Offered     bool     `json:"offered"`
	Unlocks     []string `json:"unlocks"`
}

// FormatResult reports one file handled by fmt.
type FormatResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`

	// Output holds the formatted script for printing.
	Output []byte `json:"-"`
}
