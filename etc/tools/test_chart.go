package main

import (
	"fmt"
	"os"

	"wallet-tracker/internal/features/charts"
	"wallet-tracker/internal/features/duplicates"
)

// go run etc/tools/test_chart.go FILE...
// in etc/charts/duplicates_chart.png
func main() {
	fmt.Println("Generating test chart...")

	report := duplicates.Report{
		{Identifier: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", Count: 9},
		{Identifier: "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1", Count: 6},
		{Identifier: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", Count: 3},
		{Identifier: "w1", Count: 2},
	}
	if len(os.Args) > 1 {
		var res duplicates.ReadResult
		report, res = duplicates.Extract(os.Args[1:], "Wallet Address")
		fmt.Printf("Read %d files, skipped %d\n", res.Files, len(res.Failures))
	}

	chartPath := "etc/charts/duplicates_chart.png"
	if err := charts.RenderDuplicatesChart(report, chartPath, charts.DefaultTopN); err != nil {
		fmt.Printf("Error generating chart: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chart generated successfully: %s\n", chartPath)
	fmt.Println("Open the file to see the result!")
}
