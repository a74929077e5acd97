/*
Copyright © 2024 the RFContrail authors.
This file is part of RFContrail.

RFContrail is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

RFContrail is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with RFContrail.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command rfcontrail is a command-line interface for the RFContrail
// contrail radiative transfer model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/rfcontrail/rfutil"
)

func main() {
	if err := rfutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(rfutil.ExitCode(err))
	}
}
