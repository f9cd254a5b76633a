// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader built on koanf.
//
// Features:
//
//   - Multiple Sources: YAML files, .env files, environment variables
//   - Watch Support: Debounced notification when a watched file changes
//   - Type Safety: Unmarshaling into typed structs via koanf tags
//
// Priority (highest to lowest):
//
//  1. Environment variables (LINKGATE_ prefix, "__" between levels)
//  2. .env files (never override variables already set)
//  3. Configuration files
//  4. Default values held by the target struct
//
// @design DS-0502
package confloader
