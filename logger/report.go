package logger

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	errorsGlobal  int64
	errorsCoins   int64
	warnsGlobal   int64
	warnsCoins    int64
	globalFetches int64
	coinFetches   int64
	globalRows    int64
	coinRows      int64
	droppedCoins  int64
	archiveWrites int64
	ticksComplete int64
)

func recordWarn(component string) {
	if strings.Contains(component, "global") {
		atomic.AddInt64(&warnsGlobal, 1)
	} else if strings.Contains(component, "coin") {
		atomic.AddInt64(&warnsCoins, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "global") {
		atomic.AddInt64(&errorsGlobal, 1)
	} else if strings.Contains(component, "coin") {
		atomic.AddInt64(&errorsCoins, 1)
	}
}

func IncrementGlobalFetch() {
	atomic.AddInt64(&globalFetches, 1)
}

func IncrementCoinFetch() {
	atomic.AddInt64(&coinFetches, 1)
}

func IncrementGlobalRows(n int) {
	atomic.AddInt64(&globalRows, int64(n))
}

func IncrementCoinRows(n int) {
	atomic.AddInt64(&coinRows, int64(n))
}

func IncrementDroppedCoins(n int) {
	atomic.AddInt64(&droppedCoins, int64(n))
}

func IncrementArchiveWrite() {
	atomic.AddInt64(&archiveWrites, 1)
}

func IncrementTickComplete() {
	atomic.AddInt64(&ticksComplete, 1)
}

// StartReport begins periodic logging of collector and runtime statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fields := Fields{
		"ticks_complete": atomic.LoadInt64(&ticksComplete),
		"global_fetches": atomic.LoadInt64(&globalFetches),
		"coin_fetches":   atomic.LoadInt64(&coinFetches),
		"global_rows":    atomic.LoadInt64(&globalRows),
		"coin_rows":      atomic.LoadInt64(&coinRows),
		"dropped_coins":  atomic.LoadInt64(&droppedCoins),
		"archive_writes": atomic.LoadInt64(&archiveWrites),
		"errors_global":  atomic.LoadInt64(&errorsGlobal),
		"errors_coins":   atomic.LoadInt64(&errorsCoins),
		"warns_global":   atomic.LoadInt64(&warnsGlobal),
		"warns_coins":    atomic.LoadInt64(&warnsCoins),
		"goroutines":     runtime.NumGoroutine(),
		"heap_mb":        int64(memStats.HeapAlloc) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("TicksComplete"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["ticks_complete"].(int64)))},
		{MetricName: aws.String("GlobalFetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["global_fetches"].(int64)))},
		{MetricName: aws.String("CoinFetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["coin_fetches"].(int64)))},
		{MetricName: aws.String("GlobalRows"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["global_rows"].(int64)))},
		{MetricName: aws.String("CoinRows"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["coin_rows"].(int64)))},
		{MetricName: aws.String("DroppedCoins"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["dropped_coins"].(int64)))},
		{MetricName: aws.String("ArchiveWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["archive_writes"].(int64)))},
		{MetricName: aws.String("ErrorsGlobal"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_global"].(int64)))},
		{MetricName: aws.String("ErrorsCoins"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_coins"].(int64)))},
		{MetricName: aws.String("WarnsGlobal"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_global"].(int64)))},
		{MetricName: aws.String("WarnsCoins"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_coins"].(int64)))},
		{MetricName: aws.String("Goroutines"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(runtime.NumGoroutine()))},
		{MetricName: aws.String("HeapMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.HeapAlloc) / 1024 / 1024)},
	}

	publishMetrics(ctx, data)
}
