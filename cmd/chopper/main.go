// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// chopper identifies, orients and trims cDNA sequencing reads by their
// primer content: a full-length read carries a start primer at one
// end and its reverse-complemented end primer at the other; chopper
// finds both, reorients the read to a canonical strand and trims the
// usable cDNA segment, rescuing concatenated reads into their
// constituent segments where possible.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kortschak/chopper/internal/cli"
)

var version = "dev"

func main() {
	log.SetFlags(0)
	log.SetPrefix("chopper: ")
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
