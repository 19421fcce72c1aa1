package schema

import "embed"

// builtinSchemas holds the versioned data.all schema documents shipped with
// the SDK. File names follow <version>.graphql; the lexicographically last
// version is treated as the latest.
//
//go:embed schemas/*.graphql
var builtinSchemas embed.FS
