package api

import "net/http"

type dataResponse struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

// handleData serves a capped sample of one whitelisted warehouse table.
func handleData(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Browser == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATA_NOT_CONFIGURED", "data browsing is not configured", false, nil)
		return
	}

	table := r.PathValue("table")
	if table == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table path parameter is required", false, nil)
		return
	}

	result, err := deps.Browser.Browse(r.Context(), table)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_BROWSABLE", err.Error(), false, map[string]any{"table": table})
		return
	}

	columns := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		columns[i] = column.Name
	}
	writeJSON(w, http.StatusOK, dataResponse{
		Table:     table,
		Columns:   columns,
		Rows:      result.Rows,
		Truncated: result.Truncated,
	})
}
