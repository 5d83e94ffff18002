package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/scraper"
)

var searchPage int

type searchResultJSON struct {
	Page        int          `json:"page"`
	HasNextPage bool         `json:"hasNextPage"`
	TotalFound  int          `json:"totalFound"`
	Records     []recordJSON `json:"records"`
}

type recordJSON struct {
	Title       string `json:"title"`
	MemeURL     string `json:"memeUrl"`
	TemplateURL string `json:"templateUrl"`
	Kind        string `json:"kind"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-shot template search and print the results as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := InitConfig()

		recorder := metadata.NewRecorder()
		orchestrator := buildOrchestrator(cfg, recorder)

		result, err := orchestrator.Search(cmd.Context(), args[0], searchPage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if encodeErr := encoder.Encode(toSearchResultJSON(result)); encodeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", encodeErr)
			os.Exit(1)
		}
	},
}

func toSearchResultJSON(result scraper.SearchResultSet) searchResultJSON {
	records := make([]recordJSON, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, recordJSON{
			Title:       record.Title,
			MemeURL:     record.MemeURL,
			TemplateURL: record.Template.URL,
			Kind:        string(record.Template.Kind),
		})
	}
	return searchResultJSON{
		Page:        result.Page,
		HasNextPage: result.HasNextPage,
		TotalFound:  result.TotalFound,
		Records:     records,
	}
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "results page to fetch (1-100)")
	rootCmd.AddCommand(searchCmd)
}
