package core

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type         string
	URL          string
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	Options      map[string]string
	MaxOpenConns int
}

// CatalogColumn is a column as reported by the database catalog.
type CatalogColumn struct {
	Name     string
	DataType string // physical type, e.g. "timestamp with time zone"
	Type     UIType
	Position int
}
