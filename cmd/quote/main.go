// Command quote asks a running relay for a freight estimate and prints the
// normalized result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"landedcost/internal/freight"
	"landedcost/internal/logging"
)

func main() {
	var (
		relay       = flag.String("relay", "http://localhost:8080", "relay base URL")
		origin      = flag.String("origin", "", "origin country code")
		originCity  = flag.String("origin-city", "", "origin city hint")
		destination = flag.String("destination", "", "destination country code")
		destCity    = flag.String("destination-city", "", "destination city hint")
		weight      = flag.Float64("weight", 0, "shipment weight in kg")
		mode        = flag.String("mode", "air", "air, ocean or express")
		loadType    = flag.String("loadtype", freight.DefaultLoadType, "provider load type")
		timeout     = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	req := freight.ShipmentRequest{
		Origin:      *origin,
		Destination: *destination,
		WeightKg:    *weight,
		Mode:        *mode,
		LoadType:    *loadType,
	}
	if *originCity != "" {
		req.OriginCountry = &freight.Country{Code: *origin, City: *originCity}
	}
	if *destCity != "" {
		req.DestinationCountry = &freight.Country{Code: *destination, City: *destCity}
	}

	quoter := freight.NewQuoter(freight.NewClient(*relay, nil), logger, *timeout)
	res := quoter.Quote(context.Background(), req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if !res.OK {
		os.Exit(1)
	}
}
