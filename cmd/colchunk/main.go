// Command colchunk scans, inspects and benchmarks chunked reads of CCT and Parquet files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
