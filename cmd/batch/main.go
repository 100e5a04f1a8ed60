package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/transitgo/transit_core/internal/dataset"
	"github.com/transitgo/transit_core/internal/guide"
)

// Batch mode: reads a complete document from stdin, answers its stat
// requests and writes the response array to stdout.
func main() {
	log.SetOutput(os.Stderr)

	doc, err := dataset.Decode(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to decode input: %v", err)
	}

	responses, err := guide.Process(doc)
	if err != nil {
		log.Fatalf("Failed to process document: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(responses); err != nil {
		log.Fatalf("Failed to encode responses: %v", err)
	}
}
