package api

import "net/http"

type schemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind"`
}

type schemaTable struct {
	Name    string         `json:"name"`
	Columns []schemaColumn `json:"columns"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema catalog is not configured", false, nil)
		return
	}

	tables := make([]schemaTable, 0, len(deps.Catalog.Tables()))
	for _, table := range deps.Catalog.Tables() {
		entry := schemaTable{Name: table.Name, Columns: make([]schemaColumn, 0, len(table.Columns))}
		for _, column := range table.Columns {
			entry.Columns = append(entry.Columns, schemaColumn{
				Name: column.Name,
				Type: column.NativeType,
				Kind: string(column.Kind),
			})
		}
		tables = append(tables, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}
