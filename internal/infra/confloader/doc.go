// Package confloader layers configuration sources into one koanf tree.
//
// Priority (highest to lowest):
//
//  1. Values loaded with LoadMap, typically command-line flags
//  2. Environment variables (CCM_ prefix)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
package confloader
