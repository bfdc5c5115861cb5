// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The audit-chopper-db command dumps a chopper -audit store as a JSON
// stream on stdout, one record per recorded hit, in the store's
// Ref/RefStart/RefEnd/Query key order.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/internal/auditstore"
)

func main() {
	path := flag.String("db", "", "specify the -audit store file to dump (required)")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	s, err := auditstore.Open(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	enc := json.NewEncoder(os.Stdout)
	err = s.Walk(func(h hit.Hit) error {
		return enc.Encode(h)
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintln(os.Stderr, "audit-chopper-db: done")
}
