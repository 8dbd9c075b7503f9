package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSamplingPool_AddEvictsOldest(t *testing.T) {
	p := NewSamplingPool(3)

	for i := 1; i <= 5; i++ {
		p.Add("BTC", decimal.NewFromInt(int64(i)))
	}

	samples := p.Samples("BTC")
	if len(samples) != 3 {
		t.Fatalf("Samples len = %d, want 3", len(samples))
	}
	for i, want := range []int64{3, 4, 5} {
		if !samples[i].Price.Equal(decimal.NewFromInt(want)) {
			t.Errorf("samples[%d].Price = %s, want %d", i, samples[i].Price, want)
		}
	}
}

func TestSamplingPool_LatestPrice(t *testing.T) {
	p := NewSamplingPool(10)

	if _, ok := p.LatestPrice("BTC"); ok {
		t.Fatal("LatestPrice on empty pool: ok = true, want false")
	}

	p.Add("BTC", decimal.NewFromInt(50000))
	p.Add("BTC", decimal.NewFromInt(50500))

	got, ok := p.LatestPrice("BTC")
	if !ok {
		t.Fatal("LatestPrice: ok = false, want true")
	}
	if !got.Equal(decimal.NewFromInt(50500)) {
		t.Errorf("LatestPrice = %s, want 50500", got)
	}
}

func TestSamplingPool_ShouldSample(t *testing.T) {
	p := NewSamplingPool(10)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	if !p.ShouldSample("BTC", time.Minute) {
		t.Fatal("ShouldSample on never-sampled symbol = false, want true")
	}

	p.Add("BTC", decimal.NewFromInt(50000))
	if p.ShouldSample("BTC", time.Minute) {
		t.Error("ShouldSample immediately after Add = true, want false")
	}

	now = now.Add(59 * time.Second)
	if p.ShouldSample("BTC", time.Minute) {
		t.Error("ShouldSample before interval = true, want false")
	}

	now = now.Add(time.Second)
	if !p.ShouldSample("BTC", time.Minute) {
		t.Error("ShouldSample at interval = false, want true")
	}
}

func TestSamplingPool_PriceChangePercent(t *testing.T) {
	p := NewSamplingPool(10)

	if _, ok := p.PriceChangePercent("BTC"); ok {
		t.Fatal("PriceChangePercent with no samples: ok = true, want false")
	}

	p.Add("BTC", decimal.NewFromInt(50000))
	if _, ok := p.PriceChangePercent("BTC"); ok {
		t.Fatal("PriceChangePercent with one sample: ok = true, want false")
	}

	p.Add("BTC", decimal.NewFromInt(51000))
	got, ok := p.PriceChangePercent("BTC")
	if !ok {
		t.Fatal("PriceChangePercent: ok = false, want true")
	}
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("PriceChangePercent = %s, want 2", got)
	}

	// A zero oldest price cannot produce a percentage.
	p.Add("ZERO", decimal.Zero)
	p.Add("ZERO", decimal.NewFromInt(10))
	if _, ok := p.PriceChangePercent("ZERO"); ok {
		t.Error("PriceChangePercent with zero oldest: ok = true, want false")
	}
}

func TestSamplingPool_Status(t *testing.T) {
	p := NewSamplingPool(10)

	p.Add("BTC", decimal.NewFromInt(50000))
	p.Add("BTC", decimal.NewFromInt(49000))
	p.Add("ETH", decimal.NewFromInt(3000))

	status := p.Status()
	if len(status) != 2 {
		t.Fatalf("Status len = %d, want 2", len(status))
	}

	btc := status["BTC"]
	if btc.SampleCount != 2 {
		t.Errorf("BTC.SampleCount = %d, want 2", btc.SampleCount)
	}
	if !btc.LatestPrice.Equal(decimal.NewFromInt(49000)) {
		t.Errorf("BTC.LatestPrice = %s, want 49000", btc.LatestPrice)
	}
	if btc.PriceChangePercent == nil {
		t.Fatal("BTC.PriceChangePercent = nil, want -2")
	}
	if !btc.PriceChangePercent.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("BTC.PriceChangePercent = %s, want -2", btc.PriceChangePercent)
	}

	eth := status["ETH"]
	if eth.SampleCount != 1 {
		t.Errorf("ETH.SampleCount = %d, want 1", eth.SampleCount)
	}
	if eth.PriceChangePercent != nil {
		t.Errorf("ETH.PriceChangePercent = %s, want nil", eth.PriceChangePercent)
	}
}
