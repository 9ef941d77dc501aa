// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seriesstore

import "time"

// nowUnix is a package-level indirection over the wall clock so tests can
// stub it without threading a clock interface through every call site.
var nowUnix = func() int64 { return time.Now().Unix() }
