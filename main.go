package main

import (
	"context"
	"log"
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	projectID := os.Getenv("GCP_PROJECT_ID")

	var gemini *GeminiClient
	if projectID != "" {
		var err error
		gemini, err = NewGeminiClient(ctx, projectID, os.Getenv("GCP_REGION"))
		if err != nil {
			log.Fatalf("Failed to initialize Gemini: %v", err)
		}
		defer gemini.Close()
		log.Printf("Gemini client ready (project: %s)", projectID)
	} else {
		log.Println("GCP_PROJECT_ID not set — word suggestions disabled")
	}

	srv := NewServer(NewStore(), gemini)

	log.Printf("Server listening on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		log.Fatal(err)
	}
}
