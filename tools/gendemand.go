// gendemand writes a synthetic demand CSV for a network: Poisson arrivals
// per tick, uniform origin-destination pairs, a configurable AV share.
//
// usage: gendemand -network Network.csv -out demand.csv [-lambda 0.5]
// [-period 2] [-av_share 0.3] [-horizon 1000] [-seed 42]
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"avsim/data"
	"avsim/model"
)

func main() {
	networkFile := flag.String("network", "", "network topology CSV (from,to,length)")
	outFile := flag.String("out", "demand.csv", "output demand CSV path")
	lambda := flag.Float64("lambda", 0.5, "expected departures per tick before period scaling")
	period := flag.Int("period", 2, "time period id influencing demand (1..6)")
	avShare := flag.Float64("av_share", 0.3, "fraction of vehicles that are autonomous (0-1)")
	horizon := flag.Int("horizon", 1000, "last departure tick to generate")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *networkFile == "" {
		fmt.Fprintln(os.Stderr, "usage: gendemand -network <csv> -out <csv>")
		os.Exit(1)
	}

	nf, err := os.Open(*networkFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open network: %v\n", err)
		os.Exit(1)
	}
	edges, err := model.LoadNetworkEdges(nf)
	nf.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load network: %v\n", err)
		os.Exit(1)
	}
	net, err := model.NewNetwork(edges, model.Geometry{EachBlockLength: 100})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build network: %v\n", err)
		os.Exit(1)
	}
	nodes := net.Nodes()
	if len(nodes) < 2 {
		fmt.Fprintln(os.Stderr, "network has fewer than two nodes")
		os.Exit(1)
	}
	router := model.NewRouter(net)

	mult := data.TimePeriodMultiplier[*period]
	if mult == 0 {
		mult = 1
	}
	rng := rand.New(rand.NewSource(*seed))

	out, err := os.Create(*outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintln(out, "ID,departure,Origin,Destination,lane,type")
	id := 0
	for tick := 0; tick <= *horizon; tick++ {
		count := poisson(rng, *lambda*mult)
		for i := 0; i < count; i++ {
			origin, dest := randomPair(rng, router, nodes)
			if origin == "" {
				continue // no reachable pair drawn; rare on sane networks
			}
			id++
			kind := 1
			if rng.Float64() < *avShare {
				kind = 2
			}
			lane := 1 + rng.Intn(model.LanesPerApproach)
			fmt.Fprintf(out, "%d,%d,%s,%s,%d,%d\n", id, tick, origin, dest, lane, kind)
		}
	}
	fmt.Printf("wrote %d trips to %s\n", id, *outFile)
}

// randomPair draws a uniformly random reachable origin-destination pair,
// giving up after a few rejections.
func randomPair(rng *rand.Rand, router *model.Router, nodes []string) (string, string) {
	for attempt := 0; attempt < 10; attempt++ {
		origin := nodes[rng.Intn(len(nodes))]
		dest := nodes[rng.Intn(len(nodes))]
		if origin == dest {
			continue
		}
		if router.Reachable(origin, dest) {
			return origin, dest
		}
	}
	return "", ""
}

// poisson samples with the given mean using Knuth's algorithm, switching to
// a normal approximation for large means.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 30 {
		std := math.Sqrt(mean)
		val := int(math.Round(rng.NormFloat64()*std + mean))
		if val < 0 {
			return 0
		}
		return val
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= rng.Float64()
	}
	return k - 1
}
