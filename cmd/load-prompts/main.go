package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strings"

	"truthordare/internal/config"
	"truthordare/internal/db"
)

type promptRecord struct {
	Type    string
	Content string
}

// Seeds the shared prompt catalog from a CSV of type,content rows.
// Gameplay never writes to the catalog.
func main() {
	filePath := flag.String("file", "prompts.csv", "path to prompts csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	conn, err := db.Open(config.Load())
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	records, err := readPrompts(*filePath)
	if err != nil {
		log.Fatalf("failed to read prompts: %v", err)
	}

	inserted := 0
	for _, record := range records {
		entry := db.Prompt{
			Type:    record.Type,
			Content: record.Content,
		}
		if err := conn.FirstOrCreate(&entry, db.Prompt{Type: entry.Type, Content: entry.Content}).Error; err != nil {
			log.Fatalf("failed to upsert prompt: %v", err)
		}
		inserted++
	}

	log.Printf("loaded %d prompts", inserted)
}

func readPrompts(path string) ([]promptRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []promptRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(row[0]))
		content := strings.TrimSpace(row[1])
		if content == "" {
			continue
		}
		if typ != db.PromptTruth && typ != db.PromptDare {
			log.Printf("skipping prompt with unknown type %q", typ)
			continue
		}
		records = append(records, promptRecord{Type: typ, Content: content})
	}
	return records, nil
}
