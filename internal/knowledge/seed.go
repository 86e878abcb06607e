package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// SeedDocument is one un-embedded knowledge-base entry consumed by the
// indexer.
type SeedDocument struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// LoadSeedDocuments reads seed documents from a JSON file, or returns the
// built-in e-commerce corpus when no path is given.
func LoadSeedDocuments(path string) ([]SeedDocument, error) {
	if path == "" {
		return DefaultSeedCorpus(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %q: %w", path, err)
	}
	var docs []SeedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse seed file %q: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("seed file %q contains no documents", path)
	}
	for i, doc := range docs {
		if !IsValidKind(doc.Kind) {
			return nil, fmt.Errorf("seed document %d has invalid kind %q", i, doc.Kind)
		}
		if doc.Text == "" {
			return nil, fmt.Errorf("seed document %d has empty text", i)
		}
	}
	return docs, nil
}

// DefaultSeedCorpus describes the e-commerce warehouse: table schemas, column
// semantics, example question/SQL pairs, and derived-metric formulas.
func DefaultSeedCorpus() []SeedDocument {
	return []SeedDocument{
		{Kind: KindSchema, Text: "Table: sales_summary, Columns: date (date), item_id (numeric ID), total_sales (numeric), total_units_ordered (numeric). Describes daily sales and units for items. Use for questions about sales, units, or item performance."},
		{Kind: KindSchema, Text: "Table: ad_data, Columns: date (date), item_id (numeric ID), ad_sales (numeric), impressions (numeric), ad_spend (numeric), clicks (numeric), units_sold (numeric). Contains advertising performance metrics. Use for questions about ads, spend, impressions, clicks, or ad-related sales."},
		{Kind: KindSchema, Text: "Table: eligibility_status, Columns: eligibility_datetime_utc (datetime), item_id (numeric ID), eligibility (text/boolean), message (text). Tracks item eligibility status. Use for questions about eligibility or status."},

		{Kind: KindExampleQuery, Text: "Q: What is the total revenue? A: SELECT SUM(total_sales) FROM sales_summary;"},
		{Kind: KindExampleQuery, Text: "Q: Show all ad-related metrics. A: SELECT * FROM ad_data;"},
		{Kind: KindExampleQuery, Text: "Q: Show eligibility status of items. A: SELECT item_id, eligibility, message FROM eligibility_status;"},
		{Kind: KindExampleQuery, Text: "Q: What is the highest CPC? A: SELECT MAX(ad_spend / clicks) FROM ad_data WHERE clicks > 0;"},
		{Kind: KindExampleQuery, Text: "Q: What is the total sales for each item? A: SELECT item_id, SUM(total_sales) AS total_sales_per_item FROM sales_summary GROUP BY item_id ORDER BY total_sales_per_item DESC;"},
		{Kind: KindExampleQuery, Text: "Q: Show me monthly ad spend over time. A: SELECT TO_CHAR(date, 'YYYY-MM') AS month, SUM(ad_spend) AS monthly_ad_spend FROM ad_data GROUP BY TO_CHAR(date, 'YYYY-MM') ORDER BY TO_CHAR(date, 'YYYY-MM');"},
		{Kind: KindExampleQuery, Text: "Q: Compare ad spend vs. ad sales for different items. A: SELECT item_id, SUM(ad_spend) AS total_ad_spend, SUM(ad_sales) AS total_ad_sales FROM ad_data GROUP BY item_id;"},
		{Kind: KindExampleQuery, Text: "Q: What is the average daily units ordered? A: SELECT AVG(total_units_ordered) FROM sales_summary;"},
		{Kind: KindExampleQuery, Text: "Q: Which item has the most impressions? A: SELECT item_id, SUM(impressions) AS total_impressions FROM ad_data GROUP BY item_id ORDER BY total_impressions DESC LIMIT 1;"},
		{Kind: KindExampleQuery, Text: "Q: How many items are currently eligible? A: SELECT COUNT(DISTINCT item_id) FROM eligibility_status WHERE eligibility = 'true';"},

		{Kind: KindColumn, Text: "Column: total_sales (sales_summary) - monetary value of sales."},
		{Kind: KindColumn, Text: "Column: total_units_ordered (sales_summary) - quantity of items sold."},
		{Kind: KindColumn, Text: "Column: ad_spend (ad_data) - money spent on advertising campaigns."},
		{Kind: KindColumn, Text: "Column: ad_sales (ad_data) - sales directly generated from ads."},
		{Kind: KindColumn, Text: "Column: clicks (ad_data) - number of times ads were clicked."},
		{Kind: KindColumn, Text: "Column: impressions (ad_data) - number of times ads were shown."},
		{Kind: KindColumn, Text: "Column: units_sold (ad_data) - quantity of units sold through advertising."},
		{Kind: KindColumn, Text: "Column: eligibility (eligibility_status) - status of an item's eligibility (e.g., 'true', 'false', 'eligible', 'not eligible')."},

		{Kind: KindMetric, Text: "Calculation: ROAS (Return on Ad Spend) = SUM(ad_sales) / SUM(ad_spend)."},
		{Kind: KindMetric, Text: "Calculation: CPC (Cost Per Click) = ad_spend / clicks."},
		{Kind: KindMetric, Text: "Calculation: CTR (Click-Through Rate) = clicks / impressions."},
		{Kind: KindMetric, Text: "Always use TO_CHAR(date_column, 'YYYY-MM') for monthly grouping in PostgreSQL."},
	}
}
