package entity

// SchemaGeneration is the shape the tee_times table currently has.
type SchemaGeneration int

const (
	SchemaAbsent SchemaGeneration = iota
	SchemaLegacyTemplate
	SchemaDateBased
)

func (g SchemaGeneration) String() string {
	switch g {
	case SchemaAbsent:
		return "ABSENT"
	case SchemaLegacyTemplate:
		return "LEGACY_TEMPLATE"
	case SchemaDateBased:
		return "DATE_BASED"
	default:
		return "UNKNOWN"
	}
}

// ExitCode is the status the check command exits with for the generation.
func (g SchemaGeneration) ExitCode() int {
	switch g {
	case SchemaDateBased:
		return 0
	case SchemaLegacyTemplate:
		return 1
	default:
		return 2
	}
}
