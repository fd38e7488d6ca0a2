package classification

// DefaultMapping seeds the registry when no active mapping exists.
func DefaultMapping() Mapping {
	return Mapping{
		"Sales":                QualRevenue,
		"Consulting Income":    QualRevenue,
		"Subscription Revenue": QuantRevenue,
		"Licence Revenue":      QuantRevenue,
		"Interest Income":      OtherRevenue,
		"Other Income":         OtherRevenue,
		"Cost of Goods Sold":   CostOfSales,
		"Direct Costs":         CostOfSales,
		"Subcontractor Costs":  CostOfSalesQual,
		"Hosting Costs":        CostOfSalesQuant,
		"Data Costs":           CostOfSalesQuant,
		"Rent":                 AdminCost,
		"Office Expenses":      AdminCost,
		"Software":             AdminCost,
		"Travel":               AdminCost,
		"Utilities":            AdminCost,
		"Insurance":            AdminCost,
		"Marketing":            AdminCost,
		"Bank Fees":            AdminCost,
		"Salaries":             EmploymentCost,
		"Wages":                EmploymentCost,
		"Superannuation":       EmploymentCost,
		"CPF Contributions":    EmploymentCost,
		"Depreciation":         Depreciation,
		"Amortisation":         Depreciation,
		"Interest Expense":     FinancingCost,
		"Loan Fees":            FinancingCost,
		"Income Tax Expense":   TaxCost,
		"Corporate Tax":        TaxCost,
	}
}
