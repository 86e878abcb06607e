package schema

import (
	"context"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestLoadBuildsCatalogFromInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
			AddRow("ad_data", "date", "date").
			AddRow("ad_data", "item_id", "bigint").
			AddRow("ad_data", "ad_spend", "numeric").
			AddRow("sales_summary", "date", "date").
			AddRow("sales_summary", "total_sales", "numeric"))

	catalog, err := Load(context.Background(), db, "public")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tables := catalog.Tables()
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, want 2", len(tables))
	}
	if tables[0].Name != "ad_data" || len(tables[0].Columns) != 3 {
		t.Fatalf("tables[0] = %+v", tables[0])
	}
	if !catalog.HasTable("sales_summary") {
		t.Fatal("HasTable(sales_summary) = false")
	}
	if !catalog.KnownIdentifier("AD_SPEND") {
		t.Fatal("KnownIdentifier(AD_SPEND) = false")
	}
	if catalog.KnownIdentifier("drop_me") {
		t.Fatal("KnownIdentifier(drop_me) = true")
	}
	if !strings.Contains(catalog.Summary(), "Table: sales_summary") {
		t.Fatalf("Summary missing table block:\n%s", catalog.Summary())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestLoadFailsOnEmptySchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	if _, err := Load(context.Background(), db, "public"); err == nil {
		t.Fatal("Load() expected error for empty schema")
	}
}

func TestInferKind(t *testing.T) {
	cases := []struct {
		nativeType string
		column     string
		want       ColumnKind
	}{
		{"numeric", "total_sales", KindNumeric},
		{"bigint", "item_id", KindCategorical},
		{"integer", "id", KindCategorical},
		{"double precision", "ad_spend", KindNumeric},
		{"date", "date", KindTemporal},
		{"timestamp with time zone", "eligibility_datetime_utc", KindTemporal},
		{"boolean", "eligibility", KindCategorical},
		{"text", "message", KindText},
		{"character varying", "message", KindText},
	}
	for _, tc := range cases {
		if got := InferKind(tc.nativeType, tc.column); got != tc.want {
			t.Errorf("InferKind(%q, %q) = %q, want %q", tc.nativeType, tc.column, got, tc.want)
		}
	}
}
