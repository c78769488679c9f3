// Package all wires every built-in warehouse backend into the factory.
//
// It exists purely for side effects: importing it (usually as a blank import
// in the binary's main package) runs the init functions of each backend,
// which register their factories with the warehouse package. Binaries that
// only need a subset can import the individual backend packages instead.
package all

import (
	_ "retaildw/internal/warehouse/mssql"
	_ "retaildw/internal/warehouse/mysql"
	_ "retaildw/internal/warehouse/postgres"
	_ "retaildw/internal/warehouse/sqlite"
)
