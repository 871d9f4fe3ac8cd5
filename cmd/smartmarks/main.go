package main

import (
	"log"

	"github.com/MrSnakeDoc/smartmarks/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ smartmarks failed: %v", err)
	}
}
