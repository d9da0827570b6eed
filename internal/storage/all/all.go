// Package all links every storage backend into the binary.
package all

import (
	_ "resale/internal/storage/mssql"
	_ "resale/internal/storage/postgres"
	_ "resale/internal/storage/sqlite"
)
