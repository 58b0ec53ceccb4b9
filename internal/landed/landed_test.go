package landed

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landedcost/internal/freight"
)

func ptr(f float64) *float64 { return &f }

func landedAt(total float64) TariffCalculationResult {
	return TariffCalculationResult{TradeOriginal: total, TradeFinal: total, TotalLandedCost: ptr(total)}
}

func TestDutyAmount(t *testing.T) {
	assert.Equal(t, 250.0, TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1250}.DutyAmount())
	assert.Equal(t, 0.0, TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1000}.DutyAmount())
}

func TestTotalCostFallsBackToTradeFinal(t *testing.T) {
	assert.Equal(t, 1250.0, TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1250}.TotalCost())
	assert.Equal(t, 1400.0, TariffCalculationResult{TradeFinal: 1250, TotalLandedCost: ptr(1400)}.TotalCost())
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	ranked := Rank([]Candidate{
		{CountryName: "A", Result: landedAt(1000)},
		{CountryName: "B", Result: landedAt(1200)},
		{CountryName: "C", Result: landedAt(1000)},
	})
	require.Len(t, ranked, 3)

	byName := map[string]ComparisonResult{}
	for _, r := range ranked {
		byName[r.CountryName] = r
	}
	assert.Equal(t, 1, byName["A"].Rank)
	assert.Equal(t, 3, byName["B"].Rank)
	assert.Equal(t, 2, byName["C"].Rank)
	assert.Equal(t, 0.0, byName["A"].PercentDiff)
	assert.InDelta(t, 20.0, byName["B"].PercentDiff, 1e-9)
	assert.Equal(t, 0.0, byName["C"].PercentDiff)

	assert.Equal(t, []string{"A", "C", "B"}, []string{ranked[0].CountryName, ranked[1].CountryName, ranked[2].CountryName})
}

func TestRank_UsesTradeFinalWithoutLandedTotal(t *testing.T) {
	ranked := Rank([]Candidate{
		{CountryName: "MX", Result: TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1100}},
		{CountryName: "VN", Result: TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1000}},
	})
	assert.Equal(t, "VN", ranked[0].CountryName)
	assert.InDelta(t, 10.0, ranked[1].PercentDiff, 1e-9)
	assert.Equal(t, 100.0, ranked[1].Breakdown.Duty)
}

func TestRank_BreakdownKeepsReportedLandedTotal(t *testing.T) {
	ranked := Rank([]Candidate{
		{CountryName: "TH", Result: TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1100, TotalLandedCost: ptr(1500)}},
	})
	require.Len(t, ranked, 1)
	assert.Equal(t, 1500.0, ranked[0].TotalCost)
	assert.Equal(t, ranked[0].TotalCost, ranked[0].Breakdown.Total)
	assert.Equal(t, 400.0, ranked[0].Breakdown.Other)
	b := ranked[0].Breakdown
	assert.InDelta(t, b.Total, b.Base+b.Duty+b.Freight+b.Insurance+b.Other, 1e-9)
}

func TestRank_ZeroBaseline(t *testing.T) {
	ranked := Rank([]Candidate{
		{CountryName: "free", Result: landedAt(0)},
		{CountryName: "paid", Result: landedAt(50)},
	})
	assert.Equal(t, 0.0, ranked[1].PercentDiff)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestCompose(t *testing.T) {
	r := TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1200, InsuranceRate: ptr(0.01)}
	b := Compose(r, &freight.Result{OK: true, AvgCost: 300})
	assert.Equal(t, 1000.0, b.Base)
	assert.Equal(t, 200.0, b.Duty)
	assert.Equal(t, 300.0, b.Freight)
	assert.InDelta(t, 13.0, b.Insurance, 1e-9)
	assert.InDelta(t, 1513.0, b.Total, 1e-9)

	// explicit costs win over the quote
	r.FreightCost = ptr(100)
	r.InsuranceCost = ptr(5)
	b = Compose(r, &freight.Result{OK: true, AvgCost: 300})
	assert.Equal(t, 1305.0, b.Total)

	// failed quotes contribute nothing
	b = Compose(TariffCalculationResult{TradeOriginal: 10, TradeFinal: 12}, &freight.Result{OK: false, AvgCost: 99})
	assert.Equal(t, 12.0, b.Total)
}

func TestWithFreightFillsMissingFields(t *testing.T) {
	r := WithFreight(TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1100}, &freight.Result{OK: true, AvgCost: 200})
	require.NotNil(t, r.FreightCost)
	require.NotNil(t, r.TotalLandedCost)
	assert.Nil(t, r.InsuranceCost)
	assert.Equal(t, 200.0, *r.FreightCost)
	assert.Equal(t, 1300.0, *r.TotalLandedCost)

	kept := WithFreight(landedAt(900), &freight.Result{OK: true, AvgCost: 200})
	assert.Equal(t, 900.0, *kept.TotalLandedCost)
}

type fakeQuoter struct {
	mu     sync.Mutex
	byCode map[string]freight.Result
	seen   []freight.ShipmentRequest
}

func (f *fakeQuoter) Quote(ctx context.Context, req freight.ShipmentRequest) freight.Result {
	f.mu.Lock()
	f.seen = append(f.seen, req)
	f.mu.Unlock()
	if res, ok := f.byCode[req.Origin]; ok {
		return res
	}
	return freight.Failed(freight.ErrNoRatesAvailable, freight.ModeAir)
}

func TestCompare_ExcludesFailedQuotes(t *testing.T) {
	q := &fakeQuoter{byCode: map[string]freight.Result{
		"CN": {OK: true, AvgCost: 400, ResolvedMode: "air"},
		"VN": {OK: true, AvgCost: 100, ResolvedMode: "air"},
	}}
	cmp, err := NewComparator(q, nil, 2).Compare(context.Background(), ComparisonRequest{
		Destination:    "US",
		WeightKg:       100,
		IncludeFreight: true,
		Countries: []CountryInput{
			{CountryName: "China", CountryCode: "CN", Tariff: TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1250}},
			{CountryName: "Vietnam", CountryCode: "VN", Tariff: TariffCalculationResult{TradeOriginal: 1000, TradeFinal: 1100}},
			{CountryName: "Atlantis", CountryCode: "AT", Tariff: TariffCalculationResult{TradeOriginal: 1, TradeFinal: 1}},
		},
	})
	require.NoError(t, err)
	require.Len(t, cmp.Ranked, 2)
	assert.Equal(t, "Vietnam", cmp.Ranked[0].CountryName)
	assert.Equal(t, 1200.0, cmp.Ranked[0].TotalCost)
	assert.Equal(t, "China", cmp.Ranked[1].CountryName)
	assert.Equal(t, 1650.0, cmp.Ranked[1].TotalCost)
	assert.InDelta(t, 37.5, cmp.Ranked[1].PercentDiff, 1e-9)

	require.Len(t, cmp.Failures, 1)
	assert.Equal(t, "Atlantis", cmp.Failures[0].CountryName)
	assert.Equal(t, freight.KindNoRates, cmp.Failures[0].Kind)
	assert.Len(t, q.seen, 3)
	require.Len(t, cmp.Freight, 3)
	assert.Equal(t, "Atlantis", cmp.Freight[2].CountryName)
	assert.False(t, cmp.Freight[2].Quote.OK)
}

func TestCompare_DuplicateNamesKeepEveryQuote(t *testing.T) {
	q := &fakeQuoter{byCode: map[string]freight.Result{
		"CN": {OK: true, AvgCost: 400},
		"HK": {OK: true, AvgCost: 250},
	}}
	cmp, err := NewComparator(q, nil, 2).Compare(context.Background(), ComparisonRequest{
		Destination:    "US",
		WeightKg:       10,
		IncludeFreight: true,
		Countries: []CountryInput{
			{CountryName: "China", CountryCode: "CN", Tariff: TariffCalculationResult{TradeOriginal: 100, TradeFinal: 100}},
			{CountryName: "China", CountryCode: "HK", Tariff: TariffCalculationResult{TradeOriginal: 100, TradeFinal: 100}},
		},
	})
	require.NoError(t, err)
	require.Len(t, cmp.Freight, 2)
	assert.Equal(t, "CN", cmp.Freight[0].CountryCode)
	assert.Equal(t, 400.0, cmp.Freight[0].Quote.AvgCost)
	assert.Equal(t, "HK", cmp.Freight[1].CountryCode)
	assert.Equal(t, 250.0, cmp.Freight[1].Quote.AvgCost)
}

func TestCompare_AllFailed(t *testing.T) {
	cmp, err := NewComparator(&fakeQuoter{}, nil, 0).Compare(context.Background(), ComparisonRequest{
		Destination:    "US",
		WeightKg:       10,
		IncludeFreight: true,
		Countries:      []CountryInput{{CountryName: "Nowhere", CountryCode: "ZZ"}},
	})
	assert.ErrorIs(t, err, ErrNoComparableResults)
	assert.Empty(t, cmp.Ranked)
	assert.Len(t, cmp.Failures, 1)
}

func TestCompare_WithoutFreightRanksTariffs(t *testing.T) {
	q := &fakeQuoter{}
	cmp, err := NewComparator(q, nil, 0).Compare(context.Background(), ComparisonRequest{
		Countries: []CountryInput{
			{CountryName: "A", Tariff: landedAt(1000)},
			{CountryName: "B", Tariff: landedAt(1200)},
			{CountryName: "C", Tariff: landedAt(1000)},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, q.seen)
	assert.Equal(t, []int{1, 2, 3}, []int{cmp.Ranked[0].Rank, cmp.Ranked[1].Rank, cmp.Ranked[2].Rank})
	assert.Equal(t, "C", cmp.Ranked[1].CountryName)
}

func TestCompare_PassesCityHints(t *testing.T) {
	q := &fakeQuoter{byCode: map[string]freight.Result{"CN": {OK: true, AvgCost: 1}}}
	_, err := NewComparator(q, nil, 1).Compare(context.Background(), ComparisonRequest{
		Destination:     "US",
		DestinationCity: "Chicago",
		WeightKg:        1,
		Mode:            "ocean",
		IncludeFreight:  true,
		Countries:       []CountryInput{{CountryName: "China", CountryCode: "CN", City: "Shanghai"}},
	})
	require.NoError(t, err)
	require.Len(t, q.seen, 1)
	req := q.seen[0]
	assert.Equal(t, "Shanghai", req.OriginCountry.City)
	assert.Equal(t, "Chicago", req.DestinationCountry.City)
	assert.Equal(t, "ocean", req.Mode)
}
