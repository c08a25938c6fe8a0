package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/maheshrc27/mission-control/cmd/mcctl/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
