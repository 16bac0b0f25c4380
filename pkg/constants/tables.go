package constants

import "strings"

// SystemTablePrefix is the prefix for all system tables
const SystemTablePrefix = "_System_"

// System tables owned by the back office
const (
	TableDashboardConfig = "_System_DashboardConfig"
)

// Marketplace projection and reference tables exposed as report data sources
const (
	TableSalesRegister      = "p900_mp_sales_register"
	TableWBFinanceReport    = "p903_wb_finance_report"
	TableNomenclaturePrices = "p906_nomenclature_prices"

	TableOrganization = "a002_organization"
	TableNomenclature = "a004_nomenclature"
	TableMarketplace  = "a005_marketplace"
	TableConnectionMP = "a006_connection_mp"
)

// Common column names
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldDescription      = "description"
	FieldDataSource       = "data_source"
	FieldConfig           = "config"
	FieldCreatedDate      = "created_at"
	FieldLastModifiedDate = "updated_at"
)

// IsSystemTable checks if a table name is a system table
func IsSystemTable(tableName string) bool {
	return strings.HasPrefix(tableName, SystemTablePrefix)
}
