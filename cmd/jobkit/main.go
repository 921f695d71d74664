// Command jobkit runs the job engine: workers, the producer API and the scheduler.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jobkit:", err)
		os.Exit(1)
	}
}
