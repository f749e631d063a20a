package schema

// Custom string types for type safety.
type (
	// Granularity represents a period classification.
	Granularity string

	// Dimension represents a raw metric dimension that can carry a scoring weight.
	Dimension string

	// CapKey represents a per-day cap name in a scoring rule.
	CapKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for storage.
	DatabaseBackend string
)

// All granularities supported.
const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Dimension names used in rule weights and raw metrics.
const (
	DimLinesAdded    Dimension = "lines_added"
	DimLinesRemoved  Dimension = "lines_removed"
	DimCommitCount   Dimension = "commit_count"
	DimFilesChanged  Dimension = "files_changed"
	DimSessionHours  Dimension = "session_duration_hours"
	DimAgentRequests Dimension = "agent_requests"
)

// Cap names used in rule caps.
const (
	CapSessionHoursPerDay  CapKey = "session_duration_hours_per_day"
	CapAgentRequestsPerDay CapKey = "agent_requests_per_day"
)

// Default per-day caps applied when a rule leaves them unset.
const (
	DefaultSessionHoursPerDay  = 12
	DefaultAgentRequestsPerDay = 500
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// Dimensions lists every scoreable dimension in a stable order.
var Dimensions = []Dimension{
	DimLinesAdded,
	DimLinesRemoved,
	DimCommitCount,
	DimFilesChanged,
	DimSessionHours,
	DimAgentRequests,
}

// CapKeys lists every recognized cap name.
var CapKeys = []CapKey{
	CapSessionHoursPerDay,
	CapAgentRequestsPerDay,
}
