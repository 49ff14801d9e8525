// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/insights/internal/application/usecase/insights"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/dto"
)

// InsightsController handles the one-shot insights endpoints.
type InsightsController struct {
	getSummaryUseCase          *insights.GetSummaryUseCase
	getChartDataUseCase        *insights.GetChartDataUseCase
	getBalancesUseCase         *insights.GetBalancesUseCase
	getCumulativeTotalsUseCase *insights.GetCumulativeTotalsUseCase
}

// NewInsightsController creates a new insights controller instance.
func NewInsightsController(
	getSummaryUseCase *insights.GetSummaryUseCase,
	getChartDataUseCase *insights.GetChartDataUseCase,
	getBalancesUseCase *insights.GetBalancesUseCase,
	getCumulativeTotalsUseCase *insights.GetCumulativeTotalsUseCase,
) *InsightsController {
	return &InsightsController{
		getSummaryUseCase:          getSummaryUseCase,
		getChartDataUseCase:        getChartDataUseCase,
		getBalancesUseCase:         getBalancesUseCase,
		getCumulativeTotalsUseCase: getCumulativeTotalsUseCase,
	}
}

// queryInput reads the selection parameters shared by the insights endpoints.
// List parameters may be repeated or comma separated.
func queryInput(ctx *gin.Context) (insights.QueryInput, bool) {
	userID, ok := currentUser(ctx)
	if !ok {
		return insights.QueryInput{}, false
	}
	includeUncategorized, _ := strconv.ParseBool(ctx.Query("include_uncategorized"))
	return insights.QueryInput{
		UserID:               userID,
		Months:               ctx.QueryArray("months"),
		CategoryIDs:          ctx.QueryArray("categories"),
		GroupIDs:             ctx.QueryArray("groups"),
		IncludeUncategorized: includeUncategorized,
		Scope:                ctx.Query("scope"),
		SelectedIDs:          ctx.QueryArray("selected"),
	}, true
}

// GetSummary handles GET /insights/summary requests.
func (c *InsightsController) GetSummary(ctx *gin.Context) {
	input, ok := queryInput(ctx)
	if !ok {
		return
	}

	output, err := c.getSummaryUseCase.Execute(ctx.Request.Context(), insights.GetSummaryInput{QueryInput: input})
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSummaryResponse(output))
}

// GetChart handles GET /insights/chart requests.
func (c *InsightsController) GetChart(ctx *gin.Context) {
	input, ok := queryInput(ctx)
	if !ok {
		return
	}

	output, err := c.getChartDataUseCase.Execute(ctx.Request.Context(), insights.GetChartDataInput{QueryInput: input})
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToChartResponse(output))
}

// GetBalances handles GET /insights/balances requests.
func (c *InsightsController) GetBalances(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	output, err := c.getBalancesUseCase.Execute(ctx.Request.Context(), insights.GetBalancesInput{
		UserID: userID,
		Month:  ctx.Query("month"),
		Scope:  ctx.Query("scope"),
	})
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBalancesResponse(output))
}

// GetCumulative handles GET /insights/cumulative requests.
func (c *InsightsController) GetCumulative(ctx *gin.Context) {
	input, ok := queryInput(ctx)
	if !ok {
		return
	}

	output, err := c.getCumulativeTotalsUseCase.Execute(ctx.Request.Context(), insights.GetCumulativeTotalsInput{
		QueryInput: input,
		Metric:     ctx.Query("metric"),
	})
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToCumulativeResponse(output))
}
