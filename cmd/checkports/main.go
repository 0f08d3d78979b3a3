// instancechart-checkports scans a range of candidate discovery ports and
// reports which ones support multicast on this host: for each port it
// opens two local chart instances with SO_REUSEPORT and checks whether
// they find each other within a short deadline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/x0tta6bl4/instancechart"
)

func main() {
	start := flag.Int("start", 1024, "first port to scan")
	end := flag.Int("end", 1124, "last port to scan (exclusive)")
	concurrency := flag.Int("concurrency", 32, "number of ports checked at once")
	flag.Parse()

	if *end <= *start {
		fmt.Fprintln(os.Stderr, "ERROR: --end must be greater than --start")
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" scanning ports %d-%d for multicast support...", *start, *end)
	s.Start()

	good := scanRange(*start, *end, *concurrency)
	s.Stop()

	sort.Ints(good)
	fmt.Printf("%d of %d ports support multicast:\n", len(good), *end-*start)
	for _, p := range good {
		fmt.Println(p)
	}
}

func scanRange(start, end, concurrency int) []int {
	ports := make(chan int)
	results := make(chan int, end-start)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ports {
				if checkPort(p) {
					results <- p
				}
			}
		}()
	}

	go func() {
		for p := start; p < end; p++ {
			ports <- p
		}
		close(ports)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var good []int
	for p := range results {
		good = append(good, p)
	}
	return good
}

// checkPort opens two local chart instances sharing discovery port p and
// reports whether they find each other within half a second.
func checkPort(p int) bool {
	a, err := instancechart.NewBuilder().
		WithRandomID().WithDiscoveryPort(p).WithLocalDiscovery(true).
		WithRampdown(5*time.Millisecond, 20*time.Millisecond, time.Second).
		BuildPort(0)
	if err != nil {
		return false
	}
	b, err := instancechart.NewBuilder().
		WithRandomID().WithDiscoveryPort(p).WithLocalDiscovery(true).
		WithRampdown(5*time.Millisecond, 20*time.Millisecond, time.Second).
		BuildPort(0)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go a.Maintain(ctx)
	go b.Maintain(ctx)

	// FoundEveryone requires a cluster size above 2 (see its doc comment);
	// a two-node multicast probe like this one has to poll Size directly
	// instead of going through that helper.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if a.Size() >= 2 && b.Size() >= 2 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
