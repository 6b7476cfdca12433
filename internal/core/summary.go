package core

// MonthlyPeriod is one month bucket of the analytics history.
type MonthlyPeriod struct {
	Month     string  `json:"month"` // YYYY-MM
	MonthName string  `json:"month_name"`
	Total     float64 `json:"total"`
	Count     int     `json:"count"`
}

// WeeklyPeriod is one week bucket of the analytics history.
type WeeklyPeriod struct {
	Week      string  `json:"week"`
	WeekRange string  `json:"week_range"`
	Total     float64 `json:"total"`
	Count     int     `json:"count"`
}

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Analytics is the dashboard payload of GET /analytics.
// All averages are computed by the backend.
type Analytics struct {
	TotalExpenses     float64         `json:"total_expenses"`
	AverageDaily      float64         `json:"average_daily"`
	AverageWeekly     float64         `json:"average_weekly"`
	AverageMonthly    float64         `json:"average_monthly"`
	MonthlyData       []MonthlyPeriod `json:"monthly_data"`
	WeeklyData        []WeeklyPeriod  `json:"weekly_data"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
	TopCategories     []CategoryTotal `json:"top_categories"`
}

// Average returns total/count, or 0 for an empty period.
func Average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
