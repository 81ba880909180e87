// Command validate-catalog checks category seed files before they are deployed.
package main

import (
	"fmt"
	"os"

	"github.com/blockedby/jobpost/internal/catalog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("No files to check.")
		os.Exit(0)
	}

	failed := false
	for _, path := range os.Args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("❌ Failed to read %s: %v\n", path, err)
			failed = true
			continue
		}

		list, err := catalog.ParseYAML(data)
		if err != nil {
			fmt.Printf("❌ Invalid catalog in %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s is valid (%d categories)\n", path, len(list))
	}

	if failed {
		os.Exit(1)
	}
}
