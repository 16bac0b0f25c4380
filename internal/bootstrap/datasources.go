package bootstrap

import (
	"fmt"

	"github.com/teknatem/mpbackoffice/pkg/constants"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

// Data source ids exposed to the dashboard API
const (
	DataSourceSalesRegister      = "sales_register"
	DataSourceWBFinanceReport    = "wb_finance_report"
	DataSourceNomenclaturePrices = "nomenclature_prices"
)

// Reference fields shared by the projections
var (
	marketplaceRef = pivot.FieldDef{
		ID:               "marketplace",
		Name:             "Marketplace",
		Type:             pivot.RefType(constants.TableMarketplace),
		DBColumn:         "marketplace_ref",
		RefDisplayColumn: constants.FieldDescription,
		CanGroup:         true,
	}
	organizationRef = pivot.FieldDef{
		ID:               "organization",
		Name:             "Organization",
		Type:             pivot.RefType(constants.TableOrganization),
		DBColumn:         "organization_ref",
		RefDisplayColumn: constants.FieldDescription,
		CanGroup:         true,
	}
	connectionRef = pivot.FieldDef{
		ID:               "connection",
		Name:             "Marketplace connection",
		Type:             pivot.RefType(constants.TableConnectionMP),
		DBColumn:         "connection_mp_ref",
		RefDisplayColumn: constants.FieldDescription,
		CanGroup:         true,
	}
	nomenclatureRef = pivot.FieldDef{
		ID:               "nomenclature",
		Name:             "Nomenclature",
		Type:             pivot.RefType(constants.TableNomenclature),
		DBColumn:         "nomenclature_ref",
		RefDisplayColumn: constants.FieldDescription,
		CanGroup:         true,
	}
)

// DataSources returns the report data sources over the marketplace projections
func DataSources() []pivot.DataSourceSchema {
	return []pivot.DataSourceSchema{
		{
			ID:    DataSourceSalesRegister,
			Name:  "Sales register",
			Table: constants.TableSalesRegister,
			Fields: []pivot.FieldDef{
				marketplaceRef,
				organizationRef,
				connectionRef,
				nomenclatureRef,
				{ID: "sale_date", Name: "Sale date", Type: pivot.DateType, CanGroup: true},
				{ID: "document_no", Name: "Document number", Type: pivot.TextType},
				{ID: "seller_sku", Name: "Seller SKU", Type: pivot.TextType, CanGroup: true},
				{ID: "status_norm", Name: "Status", Type: pivot.TextType, CanGroup: true},
				{ID: "is_fact", Name: "Is fact", Type: pivot.BooleanType, CanGroup: true},
				{ID: "qty", Name: "Quantity", Type: pivot.IntegerType, CanAggregate: true},
				{ID: "price_list", Name: "List price", Type: pivot.NumericType, CanAggregate: true},
				{ID: "amount_line", Name: "Line amount", Type: pivot.NumericType, CanAggregate: true},
				{ID: "dealer_price", Name: "Dealer price", Type: pivot.NumericType, CanAggregate: true},
				{ID: "cost_of_production", Name: "Cost of production", Type: pivot.NumericType, CanAggregate: true},
				{ID: "commission", Name: "Commission", Type: pivot.NumericType, CanAggregate: true},
				{ID: "acquiring", Name: "Acquiring", Type: pivot.NumericType, CanAggregate: true},
				{ID: "logistics", Name: "Logistics", Type: pivot.NumericType, CanAggregate: true},
				{ID: "event_time", Name: "Event time", Type: pivot.DateTimeType},
			},
		},
		{
			ID:    DataSourceWBFinanceReport,
			Name:  "WB finance realization",
			Table: constants.TableWBFinanceReport,
			Fields: []pivot.FieldDef{
				organizationRef,
				connectionRef,
				nomenclatureRef,
				{ID: "rr_dt", Name: "Report date", Type: pivot.DateType, CanGroup: true},
				{ID: "realizationreport_id", Name: "Realization report", Type: pivot.IntegerType, CanGroup: true},
				{ID: "supplier_oper_name", Name: "Operation", Type: pivot.TextType, CanGroup: true},
				{ID: "subject_name", Name: "Subject", Type: pivot.TextType, CanGroup: true},
				{ID: "brand_name", Name: "Brand", Type: pivot.TextType, CanGroup: true},
				{ID: "sa_name", Name: "Seller article", Type: pivot.TextType, CanGroup: true},
				{ID: "quantity", Name: "Quantity", Type: pivot.IntegerType, CanAggregate: true},
				{ID: "retail_amount", Name: "Retail amount", Type: pivot.NumericType, CanAggregate: true},
				{ID: "ppvz_for_pay", Name: "To pay to seller", Type: pivot.NumericType, CanAggregate: true},
				{ID: "ppvz_sales_commission", Name: "Sales commission", Type: pivot.NumericType, CanAggregate: true},
				{ID: "delivery_rub", Name: "Delivery", Type: pivot.NumericType, CanAggregate: true},
				{ID: "penalty", Name: "Penalty", Type: pivot.NumericType, CanAggregate: true},
				{ID: "storage_fee", Name: "Storage fee", Type: pivot.NumericType, CanAggregate: true},
				{ID: "commission_percent", Name: "Commission percent", Type: pivot.NumericType, CanAggregate: true},
			},
		},
		{
			ID:    DataSourceNomenclaturePrices,
			Name:  "Nomenclature prices",
			Table: constants.TableNomenclaturePrices,
			Fields: []pivot.FieldDef{
				nomenclatureRef,
				{ID: "period", Name: "Period", Type: pivot.DateType, CanGroup: true},
				{ID: "price_type", Name: "Price type", Type: pivot.TextType, CanGroup: true},
				{ID: "price", Name: "Price", Type: pivot.NumericType, CanAggregate: true},
				{ID: "loaded_at", Name: "Loaded at", Type: pivot.DateTimeType},
			},
		},
	}
}

// NewRegistry registers every data source
func NewRegistry() (*pivot.Registry, error) {
	registry := pivot.NewRegistry()
	for _, schema := range DataSources() {
		// back office bookkeeping tables are never reportable
		if constants.IsSystemTable(schema.Table) {
			return nil, fmt.Errorf("data source %s reads system table %s", schema.ID, schema.Table)
		}
		if err := registry.Register(schema); err != nil {
			return nil, fmt.Errorf("register data source %s: %w", schema.ID, err)
		}
	}
	return registry, nil
}
