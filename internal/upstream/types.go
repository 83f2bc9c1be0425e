package upstream

// Response schemas for the analytics/products API. Every field downstream
// shaping reads is declared here; decoding defaults absent arrays to empty
// slices and absent numerics to zero so the pipeline operates on total values.

// SalesSummary carries the aggregate KPIs for a period.
type SalesSummary struct {
	FacturacionTotal        float64 `json:"facturacionTotal"`
	FacturacionTotalEnMiles float64 `json:"facturacionTotalEnMiles"`
	TotalVentas             float64 `json:"totalVentas"`
	ProductosVendidos       float64 `json:"productosVendidos"`
	ClientesActivos         float64 `json:"clientesActivos"`
	CurrentRevenue          float64 `json:"currentRevenue"`
	PreviousRevenue         float64 `json:"previousRevenue"`
}

// TrendPoint is one step of the revenue trend series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// DailySalesPoint is one day of the sales-count series.
type DailySalesPoint struct {
	Date           string  `json:"date"`
	CantidadVentas float64 `json:"cantidadVentas"`
}

// RankedProduct is a row of the top-products ranking, server-ordered.
type RankedProduct struct {
	ProductID        int64   `json:"productId"`
	Title            string  `json:"title"`
	UnidadesVendidas float64 `json:"unidadesVendidas"`
}

// RankedCategory is a row of the top-categories ranking.
type RankedCategory struct {
	Category        string  `json:"category"`
	CantidadVendida float64 `json:"cantidadVendida"`
}

// RankedBrand is a row of the top-brands ranking.
type RankedBrand struct {
	Brand           string  `json:"brand"`
	CantidadVendida float64 `json:"cantidadVendida"`
}

// RankedCustomer is a row of the top-customers ranking.
type RankedCustomer struct {
	UserID     int64   `json:"userId"`
	Name       string  `json:"name"`
	TotalSpent float64 `json:"totalSpent"`
	Ventas     float64 `json:"ventas"`
}

// CustomerSegment aggregates churn-risk counts for one customer segment.
type CustomerSegment struct {
	Segment         string  `json:"segment"`
	TotalCustomers  float64 `json:"totalCustomers"`
	AtRiskCustomers float64 `json:"atRiskCustomers"`
}

// StockItem is a low-stock listing row.
type StockItem struct {
	ProductCode string  `json:"productCode"`
	Title       string  `json:"title"`
	Stock       float64 `json:"stock"`
}

// StockPoint is one observation of a single product's stock series.
type StockPoint struct {
	Date     string  `json:"date"`
	NewStock float64 `json:"newStock"`
}

// StockEvent is a single stock-change observation across products, consumed
// by the events-timeline aggregation.
type StockEvent struct {
	ProductTitle string  `json:"productTitle"`
	Date         string  `json:"date"`
	NewStock     float64 `json:"newStock"`
}

// Regression holds the fitted line of the sales correlation endpoint.
type Regression struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Product is a catalog entry.
type Product struct {
	ProductID   int64   `json:"productId"`
	ProductCode string  `json:"productCode"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Stock       float64 `json:"stock"`
	Price       float64 `json:"price"`
}

// TimelineFilter scopes the product-events-timeline request.
type TimelineFilter struct {
	ProductID string
	StartDate string
	EndDate   string
	TopN      int
}
