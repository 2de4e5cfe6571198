package main

import (
	"log"

	"github.com/webmark/webmark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ webmark failed to start: %v", err)
	}
}
