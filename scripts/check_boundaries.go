package main

import (
	"fmt"
	"os"

	"thermasense/internal/platform/archcheck"
)

func main() {
	violations, err := archcheck.Check(".", "thermasense")
	if err != nil {
		fmt.Printf("boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s\n", v)
	}
	os.Exit(1)
}
