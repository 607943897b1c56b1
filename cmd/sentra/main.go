// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command sentra is the administrative CLI for the Sentra service.
//
// It talks directly to the database, bypassing the HTTP layer, so it can
// provision the first administrator before the API is reachable.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
