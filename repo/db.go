package repo

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const (
	// PK is the alias for "id". Index "id" is required by all tables.
	// In the domain, the primary key is not always a single field.
	PK = "id"
)

func mergeTables() (map[string]*memdb.TableSchema, error) {
	included := []map[string]*memdb.TableSchema{
		LoginSchema(),
		UserSchema(),
		RoleSchema(),
		MembershipSchema(),
		GrantSchema(),
	}

	tables := map[string]*memdb.TableSchema{}

	for _, partialTables := range included {
		for name, table := range partialTables {
			if _, ok := tables[name]; ok {
				return nil, fmt.Errorf("table %q already there", name)
			}
			tables[name] = table
		}
	}
	return tables, nil
}

func GetSchema() (*memdb.DBSchema, error) {
	tables, err := mergeTables()
	if err != nil {
		return nil, err
	}
	return &memdb.DBSchema{Tables: tables}, nil
}
