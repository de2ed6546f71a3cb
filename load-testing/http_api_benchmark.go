package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"LogDB/internal/domain"
	"LogDB/internal/platform/client"

	"github.com/go-faker/faker/v4"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

const (
	opPut    = "PUT"
	opGet    = "GET"
	opDelete = "DELETE"
)

type RequestResult struct {
	Op       string
	Duration time.Duration
	Success  bool
	Miss     bool
}

type BenchmarkStats struct {
	TotalRequests      int64
	SuccessfulRequests int64
	MissedRequests     int64
	ErrorRequests      int64
	StartTime          time.Time
	EndTime            time.Time

	mu            sync.Mutex
	responseTimes []time.Duration
	perOp         map[string]int64
}

func NewBenchmarkStats() *BenchmarkStats {
	return &BenchmarkStats{
		StartTime: time.Now(),
		perOp:     make(map[string]int64),
	}
}

func (b *BenchmarkStats) AddResult(result RequestResult) {
	atomic.AddInt64(&b.TotalRequests, 1)

	switch {
	case result.Success:
		atomic.AddInt64(&b.SuccessfulRequests, 1)
	case result.Miss:
		atomic.AddInt64(&b.MissedRequests, 1)
	default:
		atomic.AddInt64(&b.ErrorRequests, 1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.responseTimes = append(b.responseTimes, result.Duration)
	b.perOp[result.Op]++
}

// Percentiles sorts the recorded latencies in place.
func (b *BenchmarkStats) Percentiles() map[string]time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.responseTimes)
	if n == 0 {
		return map[string]time.Duration{}
	}

	sort.Slice(b.responseTimes, func(i, j int) bool {
		return b.responseTimes[i] < b.responseTimes[j]
	})

	at := func(q float64) time.Duration {
		i := int(float64(n) * q)
		if i >= n {
			i = n - 1
		}
		return b.responseTimes[i]
	}

	return map[string]time.Duration{
		"p50":  at(0.50),
		"p90":  at(0.90),
		"p95":  at(0.95),
		"p99":  at(0.99),
		"p999": at(0.999),
	}
}

func (b *BenchmarkStats) RPS() float64 {
	duration := b.EndTime.Sub(b.StartTime).Seconds()
	if duration == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&b.TotalRequests)) / duration
}

// SuccessRate counts misses as answered requests.
func (b *BenchmarkStats) SuccessRate() float64 {
	total := atomic.LoadInt64(&b.TotalRequests)
	if total == 0 {
		return 0
	}
	ok := atomic.LoadInt64(&b.SuccessfulRequests) + atomic.LoadInt64(&b.MissedRequests)
	return float64(ok) / float64(total) * 100
}

func (b *BenchmarkStats) meanAndStdDev() (time.Duration, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.responseTimes) == 0 {
		return 0, 0
	}

	var sum time.Duration
	for _, rt := range b.responseTimes {
		sum += rt
	}
	avg := sum / time.Duration(len(b.responseTimes))

	var variance float64
	for _, rt := range b.responseTimes {
		diff := float64(rt - avg)
		variance += diff * diff
	}
	variance /= float64(len(b.responseTimes))

	return avg, time.Duration(math.Sqrt(variance))
}

func worker(id int, c *client.LogDBClient, keys int, duration time.Duration,
	stats *BenchmarkStats, logger log.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	ops := []string{opPut, opPut, opGet, opGet, opGet, opDelete}
	endTime := time.Now().Add(duration)

	for time.Now().Before(endTime) {
		op := ops[rnd.Intn(len(ops))]
		key := fmt.Sprintf("key_%d_%d", id, rnd.Intn(keys))

		start := time.Now()
		var err error
		switch op {
		case opPut:
			err = c.Put(key, faker.Sentence())
		case opGet:
			_, err = c.Get(key)
		case opDelete:
			err = c.Delete(key)
		}

		result := RequestResult{
			Op:       op,
			Duration: time.Since(start),
			Success:  err == nil,
			Miss:     errors.Is(err, domain.ErrKeyNotFound),
		}
		if err != nil && !result.Miss {
			level.Warn(logger).Log("msg", "request failed", "worker", id, "op", op, "key", key, "err", err)
		}

		stats.AddResult(result)
	}

	level.Debug(logger).Log("msg", "worker completed", "worker", id)
}

func printResults(stats *BenchmarkStats) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("BENCHMARK RESULTS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Duration: %v\n", stats.EndTime.Sub(stats.StartTime))
	fmt.Printf("Total Requests: %d\n", stats.TotalRequests)
	fmt.Printf("Successful Requests: %d\n", stats.SuccessfulRequests)
	fmt.Printf("Not Found: %d\n", stats.MissedRequests)
	fmt.Printf("Failed Requests: %d\n", stats.ErrorRequests)
	fmt.Printf("Success Rate: %.2f%%\n", stats.SuccessRate())
	fmt.Printf("RPS (Requests Per Second): %.2f\n", stats.RPS())

	stats.mu.Lock()
	for _, op := range []string{opPut, opGet, opDelete} {
		fmt.Printf("%s: %d\n", op, stats.perOp[op])
	}
	stats.mu.Unlock()

	fmt.Println("\nRESPONSE TIME PERCENTILES:")
	percentiles := stats.Percentiles()
	for _, p := range []string{"p50", "p90", "p95", "p99", "p999"} {
		if d, ok := percentiles[p]; ok {
			fmt.Printf("%s: %v\n", p, d)
		}
	}

	avg, stdDev := stats.meanAndStdDev()
	fmt.Printf("\nAverage Response Time: %v\n", avg)
	fmt.Printf("Standard Deviation: %v\n", stdDev)

	fmt.Println(strings.Repeat("=", 60))
}

func main() {
	var (
		server    = flag.String("server", "http://localhost:3000", "LogDB server address")
		workers   = flag.Int("workers", 10, "Number of worker goroutines")
		keys      = flag.Int("keys", 1000, "Keys per worker")
		duration  = flag.Duration("duration", 30*time.Second, "Test duration")
		reportInt = flag.Duration("report", 5*time.Second, "Report interval during test")
	)
	flag.Parse()

	logger := level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), level.AllowInfo())
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	c := client.NewLogDBClient(*server)
	if _, err := c.Health(); err != nil {
		level.Error(logger).Log("msg", "server not reachable", "server", *server, "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "starting benchmark", "server", *server, "workers", *workers, "duration", *duration)

	stats := NewBenchmarkStats()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go worker(i, c, *keys, *duration, stats, logger, &wg)
	}

	go func() {
		ticker := time.NewTicker(*reportInt)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				elapsed := now.Sub(stats.StartTime).Seconds()
				total := atomic.LoadInt64(&stats.TotalRequests)
				level.Info(logger).Log(
					"elapsed", fmt.Sprintf("%.0fs", elapsed),
					"requests", total,
					"rps", fmt.Sprintf("%.2f", float64(total)/elapsed),
					"success", fmt.Sprintf("%.2f%%", stats.SuccessRate()),
				)
			}
		}
	}()

	wg.Wait()
	close(done)
	stats.EndTime = time.Now()

	printResults(stats)
}
