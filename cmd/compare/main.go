// Command compare runs the training pipeline once and prints the model
// comparison, as a console table or as JSON.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"hcm-apartment-pricing/config"
	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/services"
	"hcm-apartment-pricing/storage"
	"hcm-apartment-pricing/utils"
)

// output is the JSON document written with -json.
type output struct {
	ModelR2    float64                  `json:"model_r2"`
	Listings   int                      `json:"listings"`
	Comparison *models.ComparisonReport `json:"comparison"`
}

func main() {
	asJSON := flag.Bool("json", false, "print the comparison report as JSON")
	dataset := flag.String("data", "", "dataset CSV path (defaults to DATASET_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataset != "" {
		cfg.DatasetPath = *dataset
	}

	// Logs go to stderr so stdout carries only the report.
	logger := utils.NewLoggerWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ds, err := storage.NewDatasetReader().ReadFile(cfg.DatasetPath)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	pipeline := services.NewPipeline(cfg.RandomSeed, logger)
	serving, err := pipeline.Run(ds)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if !*asJSON {
		pipeline.Insights().Print(serving.Summary(), serving.Districts(), serving.Comparison())
		return
	}

	data, err := json.MarshalIndent(output{
		ModelR2:    serving.R2(),
		Listings:   serving.Summary().TotalListings,
		Comparison: serving.Comparison(),
	}, "", "  ")
	if err != nil {
		logger.Error("encode report: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
