package espalier

import _ "embed"

// Version is the release version of the espalier module, read from the
// VERSION file at the repository root. Callers should trim surrounding
// whitespace before displaying it.
//
//go:embed VERSION
var Version string
