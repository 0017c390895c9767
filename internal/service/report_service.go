package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultTopLimit = 10

// ReportService 经营报表：销售毛利、每日流水、畅销款式
// 退货按发生时间计入所在区间，从销量与营收中扣减
type ReportService struct {
	repo            repository.ReportRepository
	location        *time.Location
	topLimitDefault int
}

// NewReportService 创建报表服务
func NewReportService(repo repository.ReportRepository, location *time.Location, topLimitDefault int) *ReportService {
	if location == nil {
		location = time.Local
	}
	if topLimitDefault <= 0 {
		topLimitDefault = defaultTopLimit
	}
	return &ReportService{repo: repo, location: location, topLimitDefault: topLimitDefault}
}

// ReportRangeInput 报表时间范围，为空时取本月 1 日至今
type ReportRangeInput struct {
	Start *time.Time
	End   *time.Time
}

// SalesReportRow 销售报表行
type SalesReportRow struct {
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	BaseCode    string       `json:"base_code"`
	VariantID   string       `json:"variant_id,omitempty"`
	Color       string       `json:"color,omitempty"`
	Size        string       `json:"size,omitempty"`
	SoldQty     int          `json:"sold_qty"`
	Revenue     models.Money `json:"revenue"`
	Cost        models.Money `json:"cost"`
	Profit      models.Money `json:"profit"`
	Margin      float64      `json:"margin"`
}

// SalesReportTotals 销售报表合计
type SalesReportTotals struct {
	SoldQty int          `json:"sold_qty"`
	Revenue models.Money `json:"revenue"`
	Cost    models.Money `json:"cost"`
	Profit  models.Money `json:"profit"`
	Margin  float64      `json:"margin"`
}

// SalesReport 销售毛利报表
type SalesReport struct {
	GroupBy string            `json:"group_by"`
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Totals  SalesReportTotals `json:"totals"`
	Rows    []SalesReportRow  `json:"rows"`
}

// DailyReportRow 每日营收与退款
type DailyReportRow struct {
	Date    string       `json:"date"`
	Revenue models.Money `json:"revenue"`
	Refunds models.Money `json:"refunds"`
	Net     models.Money `json:"net"`
}

// TopProductRow 畅销款式
type TopProductRow struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	BaseCode  string       `json:"base_code"`
	Revenue   models.Money `json:"revenue"`
	SoldQty   int          `json:"sold_qty"`
}

// DailyDigest 每日经营摘要
type DailyDigest struct {
	Date        string          `json:"date"`
	Revenue     models.Money    `json:"revenue"`
	Refunds     models.Money    `json:"refunds"`
	Net         models.Money    `json:"net"`
	TopProducts []TopProductRow `json:"top_products"`
}

type salesAccumulator struct {
	row     SalesReportRow
	revenue decimal.Decimal
	cost    decimal.Decimal
}

// resolveRange 解析时间范围；clampEnd 时结束时间取当天 23:59:59.999
func (s *ReportService) resolveRange(input ReportRangeInput, clampEnd bool) (time.Time, time.Time, error) {
	now := time.Now().In(s.location)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	if input.Start != nil {
		start = input.Start.In(s.location)
	}
	end := now
	if input.End != nil {
		end = input.End.In(s.location)
	}
	if clampEnd {
		end = endOfDay(end, s.location)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

// loadLines 并发读取区间内的销售与退货明细
func (s *ReportService) loadLines(ctx context.Context, start, end time.Time) ([]repository.ReportLineRow, []repository.ReportLineRow, error) {
	var saleLines, returnLines []repository.ReportLineRow
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := s.repo.ListSaleLines(start.UTC(), end.UTC())
		saleLines = rows
		return err
	})
	group.Go(func() error {
		rows, err := s.repo.ListReturnLines(start.UTC(), end.UTC())
		returnLines = rows
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return saleLines, returnLines, nil
}

// SalesReport 按变体或款式汇总销量、营收、成本与毛利；成本按当前加权平均成本计
func (s *ReportService) SalesReport(ctx context.Context, input ReportRangeInput, groupBy string) (*SalesReport, error) {
	group := constants.ReportGroupByVariant
	if strings.EqualFold(strings.TrimSpace(groupBy), constants.ReportGroupByProduct) {
		group = constants.ReportGroupByProduct
	}
	start, end, err := s.resolveRange(input, false)
	if err != nil {
		return nil, err
	}
	saleLines, returnLines, err := s.loadLines(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*salesAccumulator)
	upsert := func(line repository.ReportLineRow) *salesAccumulator {
		key := "variant:" + line.VariantID
		if group == constants.ReportGroupByProduct {
			key = "product:" + line.ProductID
		}
		acc, ok := rows[key]
		if !ok {
			acc = &salesAccumulator{row: SalesReportRow{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				BaseCode:    line.BaseCode,
			}}
			if group == constants.ReportGroupByVariant {
				acc.row.VariantID = line.VariantID
				acc.row.Color = line.Color
				acc.row.Size = line.Size
			}
			rows[key] = acc
		}
		return acc
	}
	for _, line := range saleLines {
		acc := upsert(line)
		acc.row.SoldQty += line.Qty
		acc.revenue = acc.revenue.Add(line.LineTotal.Decimal)
		acc.cost = acc.cost.Add(line.CostPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	for _, line := range returnLines {
		acc := upsert(line)
		acc.row.SoldQty -= line.Qty
		acc.revenue = acc.revenue.Sub(line.LineTotal.Decimal)
		acc.cost = acc.cost.Sub(line.CostPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Qty))))
	}

	report := &SalesReport{
		GroupBy: group,
		Start:   start,
		End:     end,
		Rows:    make([]SalesReportRow, 0, len(rows)),
	}
	totalRevenue := decimal.Zero
	totalCost := decimal.Zero
	for _, acc := range rows {
		profit := acc.revenue.Sub(acc.cost)
		acc.row.Revenue = models.NewMoneyFromDecimal(acc.revenue)
		acc.row.Cost = models.NewMoneyFromDecimal(acc.cost)
		acc.row.Profit = models.NewMoneyFromDecimal(profit)
		acc.row.Margin = margin(profit, acc.revenue)
		report.Rows = append(report.Rows, acc.row)

		report.Totals.SoldQty += acc.row.SoldQty
		totalRevenue = totalRevenue.Add(acc.revenue)
		totalCost = totalCost.Add(acc.cost)
	}
	sortSalesRows(report.Rows)

	totalProfit := totalRevenue.Sub(totalCost)
	report.Totals.Revenue = models.NewMoneyFromDecimal(totalRevenue)
	report.Totals.Cost = models.NewMoneyFromDecimal(totalCost)
	report.Totals.Profit = models.NewMoneyFromDecimal(totalProfit)
	report.Totals.Margin = margin(totalProfit, totalRevenue)
	return report, nil
}

func sortSalesRows(rows []SalesReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if cmp := rows[i].Revenue.Cmp(rows[j].Revenue.Decimal); cmp != 0 {
			return cmp > 0
		}
		if rows[i].BaseCode != rows[j].BaseCode {
			return rows[i].BaseCode < rows[j].BaseCode
		}
		return rows[i].VariantID < rows[j].VariantID
	})
}

// margin 毛利率，营收为 0 时记 0
func margin(profit, revenue decimal.Decimal) float64 {
	if revenue.IsZero() {
		return 0
	}
	return profit.Div(revenue).Round(4).InexactFloat64()
}

// DailyReport 每日营收与退款，日期按配置时区划分
func (s *ReportService) DailyReport(ctx context.Context, input ReportRangeInput) ([]DailyReportRow, error) {
	start, end, err := s.resolveRange(input, true)
	if err != nil {
		return nil, err
	}
	saleLines, returnLines, err := s.loadLines(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.buildDaily(saleLines, returnLines), nil
}

func (s *ReportService) buildDaily(saleLines, returnLines []repository.ReportLineRow) []DailyReportRow {
	type bucket struct {
		revenue decimal.Decimal
		refunds decimal.Decimal
	}
	buckets := make(map[string]*bucket)
	ensure := func(at time.Time) *bucket {
		date := at.In(s.location).Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
		}
		return b
	}
	for _, line := range saleLines {
		b := ensure(line.OccurredAt)
		b.revenue = b.revenue.Add(line.LineTotal.Decimal)
	}
	for _, line := range returnLines {
		b := ensure(line.OccurredAt)
		b.refunds = b.refunds.Add(line.LineTotal.Decimal)
	}

	result := make([]DailyReportRow, 0, len(buckets))
	for date, b := range buckets {
		result = append(result, DailyReportRow{
			Date:    date,
			Revenue: models.NewMoneyFromDecimal(b.revenue),
			Refunds: models.NewMoneyFromDecimal(b.refunds),
			Net:     models.NewMoneyFromDecimal(b.revenue.Sub(b.refunds)),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// TopProducts 按净营收排序的畅销款式
func (s *ReportService) TopProducts(ctx context.Context, input ReportRangeInput, limit int) ([]TopProductRow, error) {
	start, end, err := s.resolveRange(input, true)
	if err != nil {
		return nil, err
	}
	saleLines, returnLines, err := s.loadLines(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.buildTop(saleLines, returnLines, limit), nil
}

func (s *ReportService) buildTop(saleLines, returnLines []repository.ReportLineRow, limit int) []TopProductRow {
	if limit <= 0 {
		limit = s.topLimitDefault
	}
	type total struct {
		row     TopProductRow
		revenue decimal.Decimal
	}
	totals := make(map[string]*total)
	ensure := func(line repository.ReportLineRow) *total {
		t, ok := totals[line.ProductID]
		if !ok {
			t = &total{row: TopProductRow{
				ProductID: line.ProductID,
				Name:      line.ProductName,
				BaseCode:  line.BaseCode,
			}}
			totals[line.ProductID] = t
		}
		return t
	}
	for _, line := range saleLines {
		t := ensure(line)
		t.revenue = t.revenue.Add(line.LineTotal.Decimal)
		t.row.SoldQty += line.Qty
	}
	for _, line := range returnLines {
		t := ensure(line)
		t.revenue = t.revenue.Sub(line.LineTotal.Decimal)
		t.row.SoldQty -= line.Qty
	}

	result := make([]TopProductRow, 0, len(totals))
	for _, t := range totals {
		t.row.Revenue = models.NewMoneyFromDecimal(t.revenue)
		result = append(result, t.row)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if cmp := result[i].Revenue.Cmp(result[j].Revenue.Decimal); cmp != 0 {
			return cmp > 0
		}
		return result[i].BaseCode < result[j].BaseCode
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// BuildDailyDigest 生成某一天的经营摘要，day 为空取前一天
func (s *ReportService) BuildDailyDigest(ctx context.Context, day *time.Time) (*DailyDigest, error) {
	target := time.Now().In(s.location).AddDate(0, 0, -1)
	if day != nil {
		target = day.In(s.location)
	}
	start := startOfDay(target, s.location)
	end := endOfDay(target, s.location)
	saleLines, returnLines, err := s.loadLines(ctx, start, end)
	if err != nil {
		return nil, err
	}

	digest := &DailyDigest{
		Date:        start.Format("2006-01-02"),
		Revenue:     models.NewMoney(0),
		Refunds:     models.NewMoney(0),
		Net:         models.NewMoney(0),
		TopProducts: s.buildTop(saleLines, returnLines, 3),
	}
	if daily := s.buildDaily(saleLines, returnLines); len(daily) > 0 {
		digest.Revenue = daily[0].Revenue
		digest.Refunds = daily[0].Refunds
		digest.Net = daily[0].Net
	}
	return digest, nil
}
