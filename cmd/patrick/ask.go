package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/internal/engine"
	"github.com/askpatrick/patrick/provider"
	"github.com/askpatrick/patrick/tools/web_fetch"
	websearch "github.com/askpatrick/patrick/tools/web_search"
)

// askCMD runs one question against a directory of documents without starting
// the HTTP server. Useful for smoke checks and scripting.
func askCMD() *cobra.Command {
	var cfgPath string
	var docsDir string
	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question from a directory of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			question := strings.Join(args, " ")

			llm, err := provider.NewProvider(provider.OpenAI, cfg.LLM)
			if err != nil {
				return err
			}
			var searcher websearch.WebSearcher
			if cfg.WebSearch.Provider != "" && cfg.WebSearch.APIKey != "" {
				searcher, err = websearch.NewWebSearcher(cfg.WebSearch)
				if err != nil {
					return err
				}
			}
			var fetcher *web_fetch.Fetcher
			if cfg.WebSearch.FetchTopHit {
				fetcher = web_fetch.NewFetcher(cfg.WebSearch.Timeout, 2000)
			}

			logger := log.New(os.Stderr, "[ASK] ", log.LstdFlags)
			eng := engine.New(cfg, logger, llm, searcher, fetcher, nil)

			docs, err := readDocuments(docsDir)
			if err != nil {
				return err
			}
			if !eng.Initialize(cmd.Context(), docs) {
				return fmt.Errorf("no indexable content under %s", docsDir)
			}

			fmt.Println(eng.ProcessQuery(cmd.Context(), question, nil))
			return nil
		},
	}
	ask.Flags().StringVar(&docsDir, "docs", ".", "directory with documents to index")
	ask.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return ask
}

func readDocuments(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	docs := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs[entry.Name()] = data
	}
	return docs, nil
}
