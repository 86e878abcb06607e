package sqlgen

import (
	"strings"
	"testing"
)

func TestExtractSQLFencedBlock(t *testing.T) {
	completion := "Here is the query:\n```sql\nSELECT SUM(total_sales) FROM sales_summary;\n```\nLet me know if you need more."
	extraction := ExtractSQL(completion)
	if !extraction.OK {
		t.Fatalf("expected extraction to succeed, got reason %q", extraction.Reason)
	}
	if extraction.SQL != "SELECT SUM(total_sales) FROM sales_summary;" {
		t.Fatalf("unexpected sql %q", extraction.SQL)
	}
}

func TestExtractSQLFencedBlockWithoutLanguageTag(t *testing.T) {
	completion := "```\nSELECT item_id FROM sales_summary\n```"
	extraction := ExtractSQL(completion)
	if !extraction.OK {
		t.Fatalf("expected extraction to succeed, got reason %q", extraction.Reason)
	}
	if extraction.SQL != "SELECT item_id FROM sales_summary" {
		t.Fatalf("unexpected sql %q", extraction.SQL)
	}
}

func TestExtractSQLFallbackScan(t *testing.T) {
	completion := "The answer can be computed as follows.\nSELECT date, total_sales\nFROM sales_summary;\nThis sums per day."
	extraction := ExtractSQL(completion)
	if !extraction.OK {
		t.Fatalf("expected extraction to succeed, got reason %q", extraction.Reason)
	}
	if !strings.HasPrefix(extraction.SQL, "SELECT date, total_sales") {
		t.Fatalf("unexpected sql %q", extraction.SQL)
	}
	if !strings.HasSuffix(extraction.SQL, "sales_summary;") {
		t.Fatalf("fallback should stop at the semicolon, got %q", extraction.SQL)
	}
}

func TestExtractSQLNoStatement(t *testing.T) {
	extraction := ExtractSQL("I cannot answer that question from the available data.")
	if extraction.OK {
		t.Fatalf("expected extraction to fail, got %q", extraction.SQL)
	}
	if extraction.Reason == "" {
		t.Fatal("expected a reason for the failure")
	}
}

func TestExtractSQLEmptyFencedBlock(t *testing.T) {
	extraction := ExtractSQL("```sql\n```")
	if extraction.OK {
		t.Fatalf("expected extraction to fail, got %q", extraction.SQL)
	}
}
