package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for advisory diagnostics: synthesis proceeds and the
	// default members still apply.
	SevWarning
	// SevError blocks the affected slot (or the whole declaration for
	// structural errors).
	SevError
)

// SevAdvisory is the synthesis-level name for warnings.
const SevAdvisory = SevWarning

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
