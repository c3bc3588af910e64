// Package core defines the shared language of leapadmin.
//
// This package contains:
//   - Connection configuration (ConnectionConfig, SSLConfig)
//   - Catalog entities (TableStatus, Field, Index, ForeignKey)
//   - Boundary types (Row, ProcessEntry, EditValue, Cell)
//   - Error kinds (ValidationError, DriverError, CapabilityError)
//   - Optional feature names (Feature)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
