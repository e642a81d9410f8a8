// Command price is the command-line option pricer. It prices a single
// contract on either engine, or sweeps the lattice step count to show
// convergence.
package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"sync"

	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"

	"optionlab/internal/pricing"
)

type result struct {
	Engine      string   `json:"engine"`
	Kind        string   `json:"option_kind"`
	Exercise    string   `json:"exercise,omitempty"`
	Price       float64  `json:"price"`
	StdError    *float64 `json:"std_error,omitempty"`
	Spot        float64  `json:"spot"`
	Strike      float64  `json:"strike"`
	Maturity    float64  `json:"maturity"`
	Rate        float64  `json:"rate"`
	Volatility  float64  `json:"volatility"`
	Steps       int      `json:"steps"`
	Simulations int      `json:"simulations,omitempty"`
	Seed        *uint64  `json:"seed,omitempty"`
}

type sweepRow struct {
	Steps int     `json:"steps"`
	Price float64 `json:"price"`
}

func main() {
	var (
		engine      = flag.String("engine", "mc", "pricing engine: mc or tree")
		spot        = flag.Float64("spot", 100, "spot price")
		strike      = flag.Float64("strike", 100, "strike price")
		maturity    = flag.Float64("maturity", 1, "maturity in years")
		rate        = flag.Float64("rate", 0.05, "annualized risk-free rate")
		volatility  = flag.Float64("volatility", 0.2, "annualized volatility")
		steps       = flag.Int("steps", 1, "time steps")
		simulations = flag.Int("simulations", 20000, "monte carlo trials (mc engine)")
		kindFlag    = flag.String("kind", "call", "option kind: call or put")
		exFlag      = flag.String("exercise", "european", "exercise style (tree engine): european or american")
		seedFlag    = flag.String("seed", "", "fixed RNG seed for reproducible mc prices (empty = fresh entropy)")
		workers     = flag.Int("workers", 1, "mc worker count; >1 partitions the trials across goroutines")
		jsonOut     = flag.Bool("json", false, "emit the result as JSON")
		sweep       = flag.Int("sweep", 0, "tree engine: price at every step count up to this bound and show convergence")
	)
	flag.Parse()

	kind, err := pricing.ParseOptionKind(*kindFlag)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	switch *engine {
	case "tree":
		exercise, err := pricing.ParseExerciseStyle(*exFlag)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		if *sweep > 0 {
			runSweep(*spot, *strike, *maturity, *rate, *volatility, kind, exercise, *sweep, *jsonOut)
			return
		}
		spec, err := pricing.NewOptionSpec(*spot, *strike, *maturity, *rate, *volatility, *steps, kind, exercise)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		price, err := pricing.PriceBinomialTree(spec)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		emit(result{
			Engine: "tree", Kind: string(kind), Exercise: string(exercise),
			Price: price, Spot: *spot, Strike: *strike, Maturity: *maturity,
			Rate: *rate, Volatility: *volatility, Steps: *steps,
		}, *jsonOut)

	case "mc":
		var seed *uint64
		if *seedFlag != "" {
			parsed, err := strconv.ParseUint(*seedFlag, 10, 64)
			if err != nil {
				log.Fatalf("error: seed must be a non-negative integer")
			}
			seed = &parsed
		}
		spec, err := pricing.NewMonteCarloSpec(*spot, *maturity, *rate, *volatility, *simulations, *steps, seed)
		if err != nil {
			log.Fatalf("error: %v", err)
		}

		res := result{
			Engine: "mc", Kind: string(kind),
			Spot: *spot, Strike: *strike, Maturity: *maturity,
			Rate: *rate, Volatility: *volatility, Steps: *steps,
			Simulations: *simulations, Seed: seed,
		}
		payoff, err := terminalPayoff(*strike, kind)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		if *workers > 1 {
			res.Price, err = pricing.PriceMonteCarloParallel(spec, payoff, *workers)
		} else {
			var stats pricing.MonteCarloResult
			stats, err = pricing.PriceMonteCarloStats(spec, payoff)
			res.Price = stats.Price
			se := stats.StdError
			res.StdError = &se
		}
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		emit(res, *jsonOut)

	default:
		log.Fatalf("error: unknown engine %q (want mc or tree)", *engine)
	}
}

func terminalPayoff(strike float64, kind pricing.OptionKind) (pricing.PathPayoff, error) {
	if kind == pricing.Put {
		return pricing.TerminalPutPayoff(strike)
	}
	return pricing.TerminalCallPayoff(strike)
}

func emit(res result, jsonOut bool) {
	if jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		fmt.Println(string(data))
		return
	}
	label := res.Kind
	if res.Exercise != "" {
		label = res.Exercise + " " + res.Kind
	}
	fmt.Printf("%s: %.4f\n", label, res.Price)
	if res.StdError != nil {
		fmt.Printf("standard error: %.4f\n", *res.StdError)
	}
}

// runSweep prices the same contract at every step count from 1 to bound,
// fanning the lattice runs across a worker pool with a progress bar.
func runSweep(spot, strike, maturity, rate, volatility float64, kind pricing.OptionKind, exercise pricing.ExerciseStyle, bound int, jsonOut bool) {
	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(bound),
		mpb.PrependDecorators(
			decor.Name("Sweep"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	prices := make([]float64, bound)
	errs := make([]error, bound)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				spec, err := pricing.NewOptionSpec(spot, strike, maturity, rate, volatility, n, kind, exercise)
				if err == nil {
					prices[n-1], err = pricing.PriceBinomialTree(spec)
				}
				errs[n-1] = err
				bar.Increment()
			}
		}()
	}
	for n := 1; n <= bound; n++ {
		jobs <- n
	}
	close(jobs)
	wg.Wait()
	p.Wait()

	if jsonOut {
		rows := make([]sweepRow, 0, bound)
		for n := 1; n <= bound; n++ {
			if errs[n-1] == nil {
				rows = append(rows, sweepRow{Steps: n, Price: prices[n-1]})
			}
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%8s  %12s\n", "steps", "price")
	for n := 1; n <= bound; n++ {
		if errs[n-1] != nil {
			fmt.Printf("%8d  error: %v\n", n, errs[n-1])
			continue
		}
		fmt.Printf("%8d  %12.6f\n", n, prices[n-1])
	}
	if errs[bound-1] == nil {
		fmt.Printf("\nfinal (%d steps): %.6f\n", bound, prices[bound-1])
	}
}
