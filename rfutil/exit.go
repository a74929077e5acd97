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

package rfutil

import (
	"errors"

	"github.com/spatialmodel/rfcontrail"
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitIO     = 1
	ExitWorker = 2
	ExitConfig = 3
	ExitOther  = 4
)

// ExitCode returns the process exit code for an error returned by a
// command.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var we *rfcontrail.WorkerError
	if errors.As(err, &we) {
		return ExitWorker
	}
	var ce *rfcontrail.ConfigError
	if errors.As(err, &ce) {
		return ExitConfig
	}
	var ie *rfcontrail.IOError
	if errors.As(err, &ie) {
		return ExitIO
	}
	return ExitOther
}
