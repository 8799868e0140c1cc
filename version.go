package postlint

import _ "embed"

// Version is the release of postlint, read from the VERSION file.
//
//go:embed VERSION
var Version string
